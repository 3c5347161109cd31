package system

import (
	"github.com/milk9111/navgraph/ecs"
	"github.com/milk9111/navgraph/ecs/component"
)

// PhysicsSystem steps the hazard simulation and copies body positions into
// transforms so later systems in the tick see where hazards moved.
type PhysicsSystem struct {
	physics *ecs.PhysicsWorld
}

func NewPhysicsSystem(physics *ecs.PhysicsWorld) *PhysicsSystem {
	return &PhysicsSystem{physics: physics}
}

func (ps *PhysicsSystem) PhysicsWorld() *ecs.PhysicsWorld {
	if ps == nil {
		return nil
	}
	return ps.physics
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil || ps.physics == nil {
		return
	}
	ps.physics.Step(w.DeltaTime())

	ecs.ForEach2(w, component.HazardComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, h *component.Hazard, tr *component.Transform) {
		if h.Body == nil {
			return
		}
		tr.Position = ecs.HazardPosition(h.Body)
	})
}
