package system

import (
	"io"
	"log"
	"time"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/ecs"
	"github.com/milk9111/navgraph/ecs/component"
	"github.com/milk9111/navgraph/event"
	"github.com/milk9111/navgraph/nav"
)

// Router produces smoothed routes. *nav.Area satisfies it.
type Router interface {
	Route(start, end common.Vec3) nav.Path
}

// BehaviorContext is everything a behavior may touch for one agent on one
// tick. Patrol is nil when the agent has none.
type BehaviorContext struct {
	World     *ecs.World
	Entity    ecs.Entity
	Transform *component.Transform
	Agent     *component.NavAgent
	State     *component.AIState
	Patrol    *component.Patrol
	Router    Router
	Events    event.Publisher
	Log       *log.Logger
	Now       time.Time
}

func (ctx *BehaviorContext) publish(t event.Type, data any) {
	if ctx == nil || ctx.Events == nil {
		return
	}
	ctx.Events.Publish(event.Event{Type: t, Time: ctx.Now, Data: data})
}

// Behavior is one arbitrated agent activity. CanRun is asked every tick; the
// eligible behavior with the highest Priority owns the agent for that tick.
// Execute is called when the owning behavior finds the agent without a path,
// Update on every tick it owns the agent.
type Behavior interface {
	Name() string
	Priority(ctx *BehaviorContext) int
	CanRun(ctx *BehaviorContext) bool
	Execute(ctx *BehaviorContext)
	Update(ctx *BehaviorContext, dt float64)
}

// BehaviorSystem arbitrates behaviors for every entity carrying a Transform,
// NavAgent and AIState.
type BehaviorSystem struct {
	behaviors []Behavior
	router    Router
	events    event.Publisher
	log       *log.Logger
	clock     func() time.Time
}

type BehaviorOption func(*BehaviorSystem)

func WithBehaviorLogger(logger *log.Logger) BehaviorOption {
	return func(s *BehaviorSystem) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithBehaviorClock(clock func() time.Time) BehaviorOption {
	return func(s *BehaviorSystem) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewBehaviorSystem registers behaviors in tie-break order: on equal
// priority the earlier one wins.
func NewBehaviorSystem(router Router, events event.Publisher, behaviors []Behavior, opts ...BehaviorOption) *BehaviorSystem {
	s := &BehaviorSystem{
		router: router,
		events: events,
		log:    log.New(io.Discard, "", 0),
		clock:  time.Now,
	}
	for _, b := range behaviors {
		if b != nil {
			s.behaviors = append(s.behaviors, b)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRouter swaps the area agents route through, e.g. after a reload.
func (s *BehaviorSystem) SetRouter(router Router) {
	if s != nil {
		s.router = router
	}
}

func (s *BehaviorSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	dt := w.DeltaTime()
	now := s.clock()

	ecs.ForEach3(w,
		component.TransformComponent.Kind(),
		component.NavAgentComponent.Kind(),
		component.AIStateComponent.Kind(),
		func(e ecs.Entity, tr *component.Transform, agent *component.NavAgent, state *component.AIState) {
			ctx := &BehaviorContext{
				World:     w,
				Entity:    e,
				Transform: tr,
				Agent:     agent,
				State:     state,
				Router:    s.router,
				Events:    s.events,
				Log:       s.log,
				Now:       now,
			}
			if p, ok := ecs.Get(w, e, component.PatrolComponent.Kind()); ok {
				ctx.Patrol = p
			}
			s.tick(ctx, dt)
		})
}

func (s *BehaviorSystem) tick(ctx *BehaviorContext, dt float64) {
	active := s.selectBehavior(ctx)

	name := ""
	if active != nil {
		name = active.Name()
	}
	if name != ctx.State.Behavior {
		s.log.Printf("ai: entity=%s behavior %q -> %q", ctx.Entity, ctx.State.Behavior, name)
		ctx.publish(event.BehaviorChanged, event.BehaviorChangedData{
			Entity: uint64(ctx.Entity),
			From:   ctx.State.Behavior,
			To:     name,
		})
		// A new owner plans its own route.
		ctx.Agent.Path = nil
		ctx.State.Current = component.StateIdle
		ctx.State.Behavior = name
	}
	if active == nil {
		return
	}

	if len(ctx.Agent.Path) == 0 {
		active.Execute(ctx)
	}
	active.Update(ctx, dt)
}

func (s *BehaviorSystem) selectBehavior(ctx *BehaviorContext) Behavior {
	var best Behavior
	bestPriority := 0
	for _, b := range s.behaviors {
		if !b.CanRun(ctx) {
			continue
		}
		p := b.Priority(ctx)
		if best == nil || p > bestPriority {
			best = b
			bestPriority = p
		}
	}
	return best
}
