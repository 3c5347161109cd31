package system

import (
	"fmt"

	"github.com/milk9111/navgraph/ecs"
	"github.com/milk9111/navgraph/ecs/component"
	"github.com/milk9111/navgraph/prefabs"
)

func (w *World) spawnHazards(specs []prefabs.HazardSpec) error {
	for _, hs := range specs {
		e := ecs.CreateEntity(w.ECS)
		pos := hs.Position.Vec3()

		hazard := &component.Hazard{Radius: hs.Radius}
		if hs.Velocity.Moving() {
			hazard.Body = w.Physics.AddHazard(e, pos, hs.Velocity.Vec3(), hs.Radius)
		}

		if err := w.addAll(e,
			func() error {
				return ecs.Add(w.ECS, e, component.TransformComponent.Kind(), &component.Transform{Position: pos})
			},
			func() error { return ecs.Add(w.ECS, e, component.HazardComponent.Kind(), hazard) },
			func() error {
				return ecs.Add(w.ECS, e, component.NameComponent.Kind(), &component.Name{Value: hs.Name})
			},
		); err != nil {
			w.Physics.RemoveHazard(hazard.Body)
			return fmt.Errorf("system: spawn hazard %s: %w", hs.Name, err)
		}
		w.register(hs.Name, e)
	}
	return nil
}

func (w *World) spawnAgents(specs []prefabs.AgentSpec) error {
	for _, as := range specs {
		e := ecs.CreateEntity(w.ECS)

		agent := &component.NavAgent{
			Speed:           as.Speed,
			TurnRate:        as.TurnRate,
			ArriveThreshold: as.ArriveThreshold,
		}
		steps := []func() error{
			func() error {
				return ecs.Add(w.ECS, e, component.TransformComponent.Kind(), &component.Transform{Position: as.Position.Vec3()})
			},
			func() error { return ecs.Add(w.ECS, e, component.NavAgentComponent.Kind(), agent) },
			func() error {
				return ecs.Add(w.ECS, e, component.AIStateComponent.Kind(), &component.AIState{Current: component.StateIdle})
			},
			func() error {
				return ecs.Add(w.ECS, e, component.NameComponent.Kind(), &component.Name{Value: as.Name})
			},
		}
		if ps := as.Patrol; ps != nil {
			patrol := &component.Patrol{
				Priority:    ps.Priority,
				EngageRange: ps.EngageRange,
				GateScript:  ps.GateScript,
			}
			for _, p := range ps.Points {
				patrol.Points = append(patrol.Points, p.Vec3())
			}
			steps = append(steps, func() error { return ecs.Add(w.ECS, e, component.PatrolComponent.Kind(), patrol) })
		}
		if err := w.addAll(e, steps...); err != nil {
			return fmt.Errorf("system: spawn agent %s: %w", as.Name, err)
		}
		w.register(as.Name, e)
	}

	// Targets may name agents spawned later in the list.
	for _, as := range specs {
		if as.Target == "" {
			continue
		}
		e, ok := w.names[as.Name]
		target, found := w.names[as.Target]
		if !ok || !found {
			return fmt.Errorf("system: agent %s targets unknown %q", as.Name, as.Target)
		}
		if err := ecs.Add(w.ECS, e, component.TargetComponent.Kind(), &component.Target{Entity: uint64(target)}); err != nil {
			return fmt.Errorf("system: target %s: %w", as.Name, err)
		}
	}
	return nil
}

func (w *World) addAll(e ecs.Entity, steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			ecs.DestroyEntity(w.ECS, e)
			return err
		}
	}
	return nil
}

func (w *World) register(name string, e ecs.Entity) {
	w.names[name] = e
	w.order = append(w.order, name)
}
