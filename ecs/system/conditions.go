package system

import (
	"github.com/milk9111/navgraph/ecs"
	"github.com/milk9111/navgraph/ecs/component"
)

// Condition gates a behavior. Conditions are asked every tick and must not
// cache their answer.
type Condition interface {
	Holds(ctx *BehaviorContext) bool
}

// ConditionFunc adapts a plain function to Condition.
type ConditionFunc func(ctx *BehaviorContext) bool

func (f ConditionFunc) Holds(ctx *BehaviorContext) bool { return f(ctx) }

// TargetProximity holds while the agent has no live target or the target is
// farther than the patrol's EngageRange. A zero EngageRange always holds.
type TargetProximity struct{}

func (TargetProximity) Holds(ctx *BehaviorContext) bool {
	if ctx == nil || ctx.Patrol == nil || ctx.Patrol.EngageRange <= 0 {
		return true
	}
	dist, ok := targetDistance(ctx)
	if !ok {
		return true
	}
	return dist > ctx.Patrol.EngageRange
}

// targetDistance measures from the agent to its Target entity's transform.
func targetDistance(ctx *BehaviorContext) (float64, bool) {
	if ctx == nil || ctx.World == nil || ctx.Transform == nil {
		return 0, false
	}
	target, ok := ecs.Get(ctx.World, ctx.Entity, component.TargetComponent.Kind())
	if !ok {
		return 0, false
	}
	other := ecs.Entity(target.Entity)
	if other == ctx.Entity {
		return 0, false
	}
	tr, ok := ecs.Get(ctx.World, other, component.TransformComponent.Kind())
	if !ok {
		return 0, false
	}
	return ctx.Transform.Position.Distance(tr.Position), true
}
