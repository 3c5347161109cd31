package system

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/ecs"
	"github.com/milk9111/navgraph/ecs/component"
	ecssystem "github.com/milk9111/navgraph/ecs/system"
	"github.com/milk9111/navgraph/event"
	"github.com/milk9111/navgraph/nav"
	"github.com/milk9111/navgraph/prefabs"
)

var ErrNilSpec = errors.New("system: nil area spec")

// World owns one running area: its navigation graph, entities, hazard
// physics and the per-tick system order physics, obstacles, behaviors.
type World struct {
	Spec    *prefabs.AreaSpec
	Area    *nav.Area
	ECS     *ecs.World
	Physics *ecs.PhysicsWorld
	Bus     *event.Bus
	Gate    *ecssystem.ScriptGate

	scheduler *ecs.Scheduler
	names     map[string]ecs.Entity
	order     []string

	extra []ecssystem.Behavior
	log   *log.Logger
	clock func() time.Time
}

type Option func(*World)

func WithLogger(logger *log.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.log = logger
		}
	}
}

// WithClock drives the rebuild limiter and event timestamps.
func WithClock(clock func() time.Time) Option {
	return func(w *World) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithBus shares an existing bus, e.g. one the journal already listens on.
func WithBus(bus *event.Bus) Option {
	return func(w *World) {
		if bus != nil {
			w.Bus = bus
		}
	}
}

// WithBehaviors registers behaviors that compete with patrol.
func WithBehaviors(behaviors ...ecssystem.Behavior) Option {
	return func(w *World) {
		w.extra = append(w.extra, behaviors...)
	}
}

// WithScriptLoader overrides where gate scripts come from.
func WithScriptLoader(load ecssystem.ScriptLoader) Option {
	return func(w *World) {
		w.Gate = ecssystem.NewScriptGate(load)
	}
}

// LoadWorld builds a world from the named area prefab.
func LoadWorld(name string, opts ...Option) (*World, error) {
	spec, err := prefabs.LoadAreaSpec(name)
	if err != nil {
		return nil, err
	}
	return NewWorld(spec, opts...)
}

func NewWorld(spec *prefabs.AreaSpec, opts ...Option) (*World, error) {
	w := &World{
		Bus:   event.NewBus(),
		log:   log.New(io.Discard, "", 0),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.Gate == nil {
		w.Gate = ecssystem.NewScriptGate(nil)
	}
	if err := w.Load(spec); err != nil {
		return nil, err
	}
	return w, nil
}

// Load replaces the running area with spec. The bus and its subscribers
// survive; entities, graph and physics are rebuilt.
func (w *World) Load(spec *prefabs.AreaSpec) error {
	if w == nil {
		return fmt.Errorf("world is nil")
	}
	if spec == nil {
		return ErrNilSpec
	}

	if w.Area != nil {
		w.Area.Cleanup()
	}

	w.Spec = spec
	w.Area = nav.NewArea(spec.Name, NavConfig(spec.Nav), spec.NodePositions(), w.Bus,
		nav.WithClock(w.clock), nav.WithLogger(w.log))
	w.ECS = ecs.NewWorld()
	w.Physics = ecs.NewPhysicsWorld(ecs.Bounds{
		MinX: spec.Bounds.MinX, MinZ: spec.Bounds.MinZ,
		MaxX: spec.Bounds.MaxX, MaxZ: spec.Bounds.MaxZ,
	})
	w.names = make(map[string]ecs.Entity)
	w.order = nil
	w.Gate.Invalidate()

	if err := w.spawnHazards(spec.Hazards); err != nil {
		return err
	}
	if err := w.spawnAgents(spec.Agents); err != nil {
		return err
	}

	behaviors := append([]ecssystem.Behavior{
		ecssystem.NewPatrolBehavior(ecssystem.TargetProximity{}, w.Gate),
	}, w.extra...)

	w.scheduler = ecs.NewScheduler(
		ecssystem.NewPhysicsSystem(w.Physics),
		ecssystem.NewObstacleSystem(w.Area),
		ecssystem.NewBehaviorSystem(w.Area, w.Bus, behaviors,
			ecssystem.WithBehaviorLogger(w.log), ecssystem.WithBehaviorClock(w.clock)),
	)

	w.log.Printf("world: loaded area %q agents=%d hazards=%d", spec.Name, len(spec.Agents), len(spec.Hazards))
	return nil
}

// Reload swaps in a new spec; on failure the running area is untouched.
func (w *World) Reload(spec *prefabs.AreaSpec) error {
	if spec == nil {
		return ErrNilSpec
	}
	next := &World{Bus: w.Bus, Gate: w.Gate, extra: w.extra, log: w.log, clock: w.clock}
	if err := next.Load(spec); err != nil {
		next.Close()
		return fmt.Errorf("system: reload %s: %w", spec.Name, err)
	}
	if w.Area != nil {
		w.Area.Cleanup()
	}
	*w = *next
	return nil
}

// Step runs one tick of dt seconds.
func (w *World) Step(dt float64) {
	if w == nil || w.scheduler == nil {
		return
	}
	w.scheduler.Update(w.ECS, dt)
}

// InvalidateScripts makes gate scripts recompile on their next evaluation.
func (w *World) InvalidateScripts() {
	if w != nil {
		w.Gate.Invalidate()
	}
}

// Close releases the navigation graph.
func (w *World) Close() {
	if w == nil || w.Area == nil {
		return
	}
	w.Area.Cleanup()
}

// Entity resolves a spawned agent or hazard by its spec name.
func (w *World) Entity(name string) (ecs.Entity, bool) {
	if w == nil {
		return 0, false
	}
	e, ok := w.names[name]
	return e, ok && ecs.IsAlive(w.ECS, e)
}

// AgentInfo is a read-only snapshot of one agent for display.
type AgentInfo struct {
	Name     string
	Entity   ecs.Entity
	Position common.Vec3
	Rotation float64
	Path     []common.Vec3
	State    component.StateID
	Behavior string
	Patrol   []common.Vec3
	Index    int
}

type HazardInfo struct {
	Name     string
	Position common.Vec3
	Radius   float64
	Moving   bool
}

// Agents lists agents in spawn order.
func (w *World) Agents() []AgentInfo {
	if w == nil {
		return nil
	}
	var out []AgentInfo
	for _, name := range w.order {
		e, ok := w.Entity(name)
		if !ok || !ecs.Has(w.ECS, e, component.NavAgentComponent.Kind()) {
			continue
		}
		info := AgentInfo{Name: name, Entity: e}
		if tr, ok := ecs.Get(w.ECS, e, component.TransformComponent.Kind()); ok {
			info.Position = tr.Position
			info.Rotation = tr.Rotation
		}
		if agent, ok := ecs.Get(w.ECS, e, component.NavAgentComponent.Kind()); ok {
			info.Path = append([]common.Vec3(nil), agent.Path...)
		}
		if st, ok := ecs.Get(w.ECS, e, component.AIStateComponent.Kind()); ok {
			info.State = st.Current
			info.Behavior = st.Behavior
		}
		if p, ok := ecs.Get(w.ECS, e, component.PatrolComponent.Kind()); ok {
			info.Patrol = p.Points
			info.Index = p.Index
		}
		out = append(out, info)
	}
	return out
}

func (w *World) Hazards() []HazardInfo {
	if w == nil {
		return nil
	}
	var out []HazardInfo
	for _, name := range w.order {
		e, ok := w.Entity(name)
		if !ok {
			continue
		}
		h, ok := ecs.Get(w.ECS, e, component.HazardComponent.Kind())
		if !ok {
			continue
		}
		info := HazardInfo{Name: name, Radius: h.Radius, Moving: h.Body != nil}
		if tr, ok := ecs.Get(w.ECS, e, component.TransformComponent.Kind()); ok {
			info.Position = tr.Position
		}
		out = append(out, info)
	}
	return out
}

// NavConfig converts prefab tuning into a graph config.
func NavConfig(s prefabs.NavSpec) nav.Config {
	return nav.Config{
		ConnectivityRadius:  s.ConnectivityRadius,
		ObstacleRadius:      s.ObstacleRadius,
		SnapRadius:          s.SnapRadius,
		RebuildInterval:     time.Duration(s.RebuildIntervalMS) * time.Millisecond,
		MaxSearchIterations: s.MaxSearchIterations,
	}
}
