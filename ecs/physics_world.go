package ecs

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/navgraph/common"
)

const collisionTypeHazard cp.CollisionType = 1

// Bounds is an axis-aligned rectangle on the ground plane (X and Z).
type Bounds struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
}

func (b Bounds) Empty() bool {
	return b.MaxX <= b.MinX || b.MaxZ <= b.MinZ
}

// PhysicsWorld owns the Chipmunk space that moves hazards. The space is the
// ground plane: cp X is world X and cp Y is world Z. Elevation is kept on the
// body's user data.
type PhysicsWorld struct {
	space  *cp.Space
	bounds Bounds
	bodies map[*cp.Body]Entity
}

type hazardData struct {
	entity Entity
	height float64
}

// NewPhysicsWorld creates a gravity-free space. Hazards leaving bounds have
// their velocity reflected; empty bounds disable that.
func NewPhysicsWorld(bounds Bounds) *PhysicsWorld {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})
	return &PhysicsWorld{
		space:  space,
		bounds: bounds,
		bodies: make(map[*cp.Body]Entity),
	}
}

// Space returns the underlying Chipmunk space.
func (pw *PhysicsWorld) Space() *cp.Space {
	if pw == nil {
		return nil
	}
	return pw.space
}

// AddHazard creates a kinematic circle body for e at pos moving with vel.
func (pw *PhysicsWorld) AddHazard(e Entity, pos, vel common.Vec3, radius float64) *cp.Body {
	if pw == nil || pw.space == nil {
		return nil
	}
	if radius <= 0 {
		radius = 0.5
	}
	body := cp.NewKinematicBody()
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Z})
	body.SetVelocity(vel.X, vel.Z)
	body.UserData = hazardData{entity: e, height: pos.Y}

	shape := cp.NewCircle(body, radius, cp.Vector{})
	shape.SetCollisionType(collisionTypeHazard)
	shape.SetSensor(true)

	pw.space.AddBody(body)
	pw.space.AddShape(shape)
	pw.bodies[body] = e
	return body
}

// RemoveHazard removes body and its shapes from the space.
func (pw *PhysicsWorld) RemoveHazard(body *cp.Body) {
	if pw == nil || body == nil {
		return
	}
	if _, ok := pw.bodies[body]; !ok {
		return
	}
	body.EachShape(func(s *cp.Shape) {
		pw.space.RemoveShape(s)
	})
	pw.space.RemoveBody(body)
	delete(pw.bodies, body)
}

// Step advances the space by dt seconds and keeps hazards inside bounds.
func (pw *PhysicsWorld) Step(dt float64) {
	if pw == nil || pw.space == nil || dt <= 0 {
		return
	}
	pw.space.Step(dt)
	if pw.bounds.Empty() {
		return
	}
	for body := range pw.bodies {
		pos := body.Position()
		vel := body.Velocity()
		if (pos.X < pw.bounds.MinX && vel.X < 0) || (pos.X > pw.bounds.MaxX && vel.X > 0) {
			vel.X = -vel.X
		}
		if (pos.Y < pw.bounds.MinZ && vel.Y < 0) || (pos.Y > pw.bounds.MaxZ && vel.Y > 0) {
			vel.Y = -vel.Y
		}
		body.SetVelocityVector(vel)
	}
}

// HazardPosition converts a body position back to world space.
func HazardPosition(body *cp.Body) common.Vec3 {
	if body == nil {
		return common.Vec3{}
	}
	pos := body.Position()
	height := 0.0
	if data, ok := body.UserData.(hazardData); ok {
		height = data.height
	}
	return common.V3(pos.X, height, pos.Y)
}

// HazardCount is the number of simulated hazards.
func (pw *PhysicsWorld) HazardCount() int {
	if pw == nil {
		return 0
	}
	return len(pw.bodies)
}
