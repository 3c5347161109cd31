package system

import (
	"math"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/ecs/component"
	"github.com/milk9111/navgraph/event"
)

const (
	PatrolBehaviorName     = "patrol"
	defaultArriveThreshold = 0.5
	defaultTurnRate        = 8.0
)

// PatrolBehavior walks an agent through its patrol points in order, looping.
// It is eligible only while every condition holds.
//
// A route to a patrol point may pass through several waypoints. Those pop
// silently. patrol.reached fires, and Patrol.Index advances, only when the
// final waypoint (the patrol point itself) is reached.
type PatrolBehavior struct {
	conditions []Condition
}

func NewPatrolBehavior(conditions ...Condition) *PatrolBehavior {
	pb := &PatrolBehavior{}
	for _, c := range conditions {
		if c != nil {
			pb.conditions = append(pb.conditions, c)
		}
	}
	return pb
}

func (pb *PatrolBehavior) Name() string { return PatrolBehaviorName }

func (pb *PatrolBehavior) Priority(ctx *BehaviorContext) int {
	if ctx == nil || ctx.Patrol == nil {
		return 0
	}
	return ctx.Patrol.Priority
}

func (pb *PatrolBehavior) CanRun(ctx *BehaviorContext) bool {
	if ctx == nil || ctx.Patrol == nil || len(ctx.Patrol.Points) == 0 {
		return false
	}
	for _, c := range pb.conditions {
		if !c.Holds(ctx) {
			return false
		}
	}
	return true
}

// Execute routes toward the current patrol point. An unreachable point is
// skipped so the agent never freezes on it.
func (pb *PatrolBehavior) Execute(ctx *BehaviorContext) {
	if ctx == nil || ctx.Patrol == nil || ctx.Router == nil {
		return
	}
	target, ok := ctx.Patrol.Current()
	if !ok {
		return
	}

	path := ctx.Router.Route(ctx.Transform.Position, target)
	if path.Empty() {
		index := ctx.Patrol.Index
		ctx.Patrol.Advance()
		ctx.State.Current = component.StateIdle
		ctx.Log.Printf("ai: entity=%s patrol point %d unreachable %s", ctx.Entity, index, target)
		ctx.publish(event.PatrolUnreachable, event.PatrolData{Entity: uint64(ctx.Entity), Index: index, Point: target})
		return
	}

	ctx.Agent.Path = []common.Vec3(path)
	ctx.State.Current = component.StateFollowing
}

func (pb *PatrolBehavior) Update(ctx *BehaviorContext, dt float64) {
	if ctx == nil || ctx.Agent == nil || len(ctx.Agent.Path) == 0 {
		return
	}
	if steer(ctx.Transform, ctx.Agent, dt) {
		pb.arrive(ctx)
	}
}

func (pb *PatrolBehavior) arrive(ctx *BehaviorContext) {
	ctx.State.Current = component.StateIdle
	if ctx.Patrol == nil {
		return
	}
	index := ctx.Patrol.Index
	point, _ := ctx.Patrol.Current()
	ctx.Patrol.Advance()
	ctx.publish(event.PatrolReached, event.PatrolData{Entity: uint64(ctx.Entity), Index: index, Point: point})
}

// steer moves tr along agent.Path for dt seconds and reports whether the
// final waypoint was consumed.
func steer(tr *component.Transform, agent *component.NavAgent, dt float64) bool {
	threshold := agent.ArriveThreshold
	if threshold <= 0 {
		threshold = defaultArriveThreshold
	}
	turnRate := agent.TurnRate
	if turnRate <= 0 {
		turnRate = defaultTurnRate
	}

	popReached := func() bool {
		for len(agent.Path) > 0 && tr.Position.Distance(agent.Path[0]) < threshold {
			agent.Path = agent.Path[1:]
			if len(agent.Path) == 0 {
				return true
			}
		}
		return false
	}

	if popReached() {
		return true
	}
	if dt <= 0 {
		return false
	}

	waypoint := agent.Path[0]
	delta := waypoint.Sub(tr.Position)
	dist := delta.Length()
	step := agent.Speed * dt
	if step >= dist {
		tr.Position = waypoint
	} else if step > 0 {
		tr.Position = tr.Position.Add(delta.Scale(step / dist))
	}

	if dist > 0 {
		tr.Rotation = common.LerpAngle(tr.Rotation, common.Yaw(delta), math.Min(1, turnRate*dt))
	}

	return popReached()
}
