package system

import (
	"errors"
	"math"
	"testing"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/ecs"
	"github.com/milk9111/navgraph/ecs/component"
	"github.com/milk9111/navgraph/event"
	"github.com/milk9111/navgraph/nav"
)

type agentFixture struct {
	w      *ecs.World
	e      ecs.Entity
	tr     *component.Transform
	agent  *component.NavAgent
	state  *component.AIState
	patrol *component.Patrol
}

func spawnAgent(t *testing.T, w *ecs.World, pos common.Vec3, speed float64, points ...common.Vec3) agentFixture {
	t.Helper()
	f := agentFixture{
		w:      w,
		e:      ecs.CreateEntity(w),
		tr:     &component.Transform{Position: pos},
		agent:  &component.NavAgent{Speed: speed},
		state:  &component.AIState{Current: component.StateIdle},
		patrol: &component.Patrol{Points: points},
	}
	for _, err := range []error{
		ecs.Add(w, f.e, component.TransformComponent.Kind(), f.tr),
		ecs.Add(w, f.e, component.NavAgentComponent.Kind(), f.agent),
		ecs.Add(w, f.e, component.AIStateComponent.Kind(), f.state),
		ecs.Add(w, f.e, component.PatrolComponent.Kind(), f.patrol),
	} {
		if err != nil {
			t.Fatalf("spawn agent: %v", err)
		}
	}
	return f
}

func spawnTarget(t *testing.T, f agentFixture, pos common.Vec3) *component.Transform {
	t.Helper()
	te := ecs.CreateEntity(f.w)
	tr := &component.Transform{Position: pos}
	if err := ecs.Add(f.w, te, component.TransformComponent.Kind(), tr); err != nil {
		t.Fatal(err)
	}
	if err := ecs.Add(f.w, f.e, component.TargetComponent.Kind(), &component.Target{Entity: uint64(te)}); err != nil {
		t.Fatal(err)
	}
	return tr
}

func typesOf(events []event.Event) []event.Type {
	out := make([]event.Type, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func patrolEvents(events []event.Event) []event.Event {
	var out []event.Event
	for _, e := range events {
		if e.Type == event.PatrolReached || e.Type == event.PatrolUnreachable {
			out = append(out, e)
		}
	}
	return out
}

func TestPatrolCyclesBetweenTwoPoints(t *testing.T) {
	area := nav.NewArea("pair", nav.Config{ConnectivityRadius: 12}, []common.Vec3{common.V3(0, 0, 0), common.V3(10, 0, 0)}, nil)
	q := &event.Queue{}
	w := ecs.NewWorld()
	f := spawnAgent(t, w, common.V3(0, 0, 0), 10, common.V3(10, 0, 0), common.V3(0, 0, 0))
	sched := ecs.NewScheduler(NewBehaviorSystem(area, q, []Behavior{NewPatrolBehavior(TargetProximity{})}))

	sched.Update(w, 1)
	if f.tr.Position != common.V3(10, 0, 0) {
		t.Fatalf("after first tick agent at %v", f.tr.Position)
	}
	if f.patrol.Index != 1 || f.state.Current != component.StateIdle || len(f.agent.Path) != 0 {
		t.Fatalf("index=%d state=%s path=%v", f.patrol.Index, f.state.Current, f.agent.Path)
	}
	if math.Abs(f.tr.Rotation-math.Pi/2) > 1e-9 {
		t.Fatalf("expected agent to face +X, rotation %v", f.tr.Rotation)
	}

	sched.Update(w, 1)
	if f.tr.Position != common.V3(0, 0, 0) || f.patrol.Index != 0 {
		t.Fatalf("after second tick agent at %v index %d", f.tr.Position, f.patrol.Index)
	}

	events := q.Drain()
	if events[0].Type != event.BehaviorChanged {
		t.Fatalf("expected behavior change first, got %v", typesOf(events))
	}
	reached := patrolEvents(events)
	if len(reached) != 2 {
		t.Fatalf("expected two reached events, got %v", typesOf(events))
	}
	for i, want := range []int{0, 1} {
		data := reached[i].Data.(event.PatrolData)
		if reached[i].Type != event.PatrolReached || data.Index != want || data.Entity != uint64(f.e) {
			t.Fatalf("event %d = %+v", i, reached[i])
		}
	}
}

func TestPatrolReachedOnlyAtPatrolPoint(t *testing.T) {
	nodes := []common.Vec3{common.V3(0, 0, 0), common.V3(5, 0, 5), common.V3(10, 0, 0)}
	area := nav.NewArea("detour", nav.Config{ConnectivityRadius: 8}, nodes, nil)
	area.UpdateObstacles([]common.Vec3{common.V3(5, 0, 0)})
	q := &event.Queue{}
	w := ecs.NewWorld()
	f := spawnAgent(t, w, common.V3(0, 0, 0), 100, common.V3(10, 0, 0), common.V3(0, 0, 0))
	sched := ecs.NewScheduler(NewBehaviorSystem(area, q, []Behavior{NewPatrolBehavior()}))

	steps := []struct {
		name     string
		pathLen  int
		index    int
		reached  int
		position *common.Vec3
	}{
		{"leaves_start", 2, 0, 0, nil},
		{"passes_detour_waypoint", 1, 0, 0, &nodes[1]},
		{"heads_for_patrol_point", 1, 0, 0, nil},
		{"arrives", 0, 1, 1, &nodes[2]},
	}
	for _, step := range steps {
		sched.Update(w, 0.05)
		if len(f.agent.Path) != step.pathLen || f.patrol.Index != step.index || q.Count(event.PatrolReached) != step.reached {
			t.Fatalf("%s: path=%v index=%d reached=%d", step.name, f.agent.Path, f.patrol.Index, q.Count(event.PatrolReached))
		}
		if step.position != nil && f.tr.Position != *step.position {
			t.Fatalf("%s: agent at %v, want %v", step.name, f.tr.Position, *step.position)
		}
	}

	reached := patrolEvents(q.Drain())
	if d := reached[0].Data.(event.PatrolData); d.Index != 0 || d.Point != nodes[2] {
		t.Fatalf("reached payload %+v", d)
	}
}

func TestPatrolSkipsUnreachablePoint(t *testing.T) {
	area := nav.NewArea("pair", nav.Config{ConnectivityRadius: 12}, []common.Vec3{common.V3(0, 0, 0), common.V3(10, 0, 0)}, nil)
	q := &event.Queue{}
	w := ecs.NewWorld()
	f := spawnAgent(t, w, common.V3(0, 0, 0), 10, common.V3(100, 0, 0), common.V3(10, 0, 0))
	sched := ecs.NewScheduler(NewBehaviorSystem(area, q, []Behavior{NewPatrolBehavior()}))

	sched.Update(w, 1)
	if f.tr.Position != common.V3(0, 0, 0) || f.state.Current != component.StateIdle {
		t.Fatalf("unreachable point should leave agent idle in place, at %v state %s", f.tr.Position, f.state.Current)
	}
	if f.patrol.Index != 1 {
		t.Fatalf("index should advance past unreachable point, got %d", f.patrol.Index)
	}

	sched.Update(w, 1)
	if f.tr.Position != common.V3(10, 0, 0) {
		t.Fatalf("agent should move on to the next point, at %v", f.tr.Position)
	}

	got := patrolEvents(q.Drain())
	if len(got) != 2 || got[0].Type != event.PatrolUnreachable || got[1].Type != event.PatrolReached {
		t.Fatalf("unexpected patrol events %v", typesOf(got))
	}
	if d := got[0].Data.(event.PatrolData); d.Index != 0 || d.Point != common.V3(100, 0, 0) {
		t.Fatalf("unreachable payload %+v", d)
	}
}

func TestPatrolOnAllUnreachableKeepsCycling(t *testing.T) {
	area := nav.NewArea("empty", nav.Config{}, nil, nil)
	q := &event.Queue{}
	w := ecs.NewWorld()
	f := spawnAgent(t, w, common.V3(0, 0, 0), 1, common.V3(1, 0, 0), common.V3(2, 0, 0), common.V3(3, 0, 0))
	sched := ecs.NewScheduler(NewBehaviorSystem(area, q, []Behavior{NewPatrolBehavior()}))

	for i := 0; i < 4; i++ {
		sched.Update(w, 0.1)
	}
	if f.patrol.Index != 1 {
		t.Fatalf("expected index to wrap to 1 after four ticks, got %d", f.patrol.Index)
	}
	if n := q.Count(event.PatrolUnreachable); n != 4 {
		t.Fatalf("expected four unreachable events, got %d", n)
	}
}

type combatBehavior struct {
	reach    float64
	executed int
}

func (c *combatBehavior) Name() string                     { return "combat" }
func (c *combatBehavior) Priority(*BehaviorContext) int    { return 10 }
func (c *combatBehavior) Execute(*BehaviorContext)         { c.executed++ }
func (c *combatBehavior) Update(*BehaviorContext, float64) {}
func (c *combatBehavior) CanRun(ctx *BehaviorContext) bool {
	d, ok := targetDistance(ctx)
	return ok && d <= c.reach
}

func TestHigherPriorityBehaviorPreemptsPatrol(t *testing.T) {
	nodes := []common.Vec3{common.V3(0, 0, 0), common.V3(5, 0, 0), common.V3(10, 0, 0)}
	area := nav.NewArea("line", nav.Config{}, nodes, nil)
	q := &event.Queue{}
	w := ecs.NewWorld()
	f := spawnAgent(t, w, common.V3(0, 0, 0), 1, common.V3(10, 0, 0))
	f.patrol.EngageRange = 5
	target := spawnTarget(t, f, common.V3(40, 0, 0))

	combat := &combatBehavior{reach: 5}
	sched := ecs.NewScheduler(NewBehaviorSystem(area, q, []Behavior{NewPatrolBehavior(TargetProximity{}), combat}))

	sched.Update(w, 1)
	if f.state.Behavior != PatrolBehaviorName || f.state.Current != component.StateFollowing {
		t.Fatalf("expected patrol to be following, got %+v", *f.state)
	}

	target.Position = common.V3(3, 0, 0)
	sched.Update(w, 1)
	if f.state.Behavior != "combat" || combat.executed != 1 {
		t.Fatalf("combat should preempt, state %+v executed %d", *f.state, combat.executed)
	}
	if len(f.agent.Path) != 0 {
		t.Fatalf("preempting behavior should not inherit patrol path %v", f.agent.Path)
	}
	held := f.tr.Position

	sched.Update(w, 1)
	if f.tr.Position != held {
		t.Fatalf("patrol moved the agent while preempted")
	}

	target.Position = common.V3(40, 0, 0)
	sched.Update(w, 1)
	if f.state.Behavior != PatrolBehaviorName || len(f.agent.Path) == 0 {
		t.Fatalf("patrol should resume with a fresh route, state %+v path %v", *f.state, f.agent.Path)
	}

	var changes []event.BehaviorChangedData
	for _, e := range q.Drain() {
		if e.Type == event.BehaviorChanged {
			changes = append(changes, e.Data.(event.BehaviorChangedData))
		}
	}
	want := []event.BehaviorChangedData{
		{Entity: uint64(f.e), From: "", To: "patrol"},
		{Entity: uint64(f.e), From: "patrol", To: "combat"},
		{Entity: uint64(f.e), From: "combat", To: "patrol"},
	}
	if len(changes) != len(want) {
		t.Fatalf("changes = %+v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestTargetProximity(t *testing.T) {
	w := ecs.NewWorld()
	f := spawnAgent(t, w, common.V3(0, 0, 0), 1, common.V3(1, 0, 0))
	ctx := &BehaviorContext{World: w, Entity: f.e, Transform: f.tr, Patrol: f.patrol}

	cases := []struct {
		name   string
		engage float64
		target *common.Vec3
		want   bool
	}{
		{"no_range", 0, nil, true},
		{"no_target", 5, nil, true},
		{"far_target", 5, &common.Vec3{X: 6}, true},
		{"at_range", 5, &common.Vec3{X: 5}, false},
		{"near_target", 5, &common.Vec3{X: 1}, false},
	}

	var targetTr *component.Transform
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f.patrol.EngageRange = c.engage
			if c.target != nil {
				if targetTr == nil {
					targetTr = spawnTarget(t, f, *c.target)
				}
				targetTr.Position = *c.target
			}
			if got := (TargetProximity{}).Holds(ctx); got != c.want {
				t.Fatalf("Holds = %v, want %v", got, c.want)
			}
		})
	}
}

func TestScriptGateEvaluatedEveryTick(t *testing.T) {
	scripts := map[string]string{
		"odd":    "eligible = tick % 2 == 1",
		"broken": "eligible = (",
	}
	loader := func(name string) ([]byte, error) {
		src, ok := scripts[name]
		if !ok {
			return nil, errors.New("missing")
		}
		return []byte(src), nil
	}

	area := nav.NewArea("line", nav.Config{}, []common.Vec3{common.V3(0, 0, 0), common.V3(5, 0, 0)}, nil)
	w := ecs.NewWorld()
	f := spawnAgent(t, w, common.V3(0, 0, 0), 1, common.V3(5, 0, 0))
	f.patrol.GateScript = "odd"
	gate := NewScriptGate(loader)
	sched := ecs.NewScheduler(NewBehaviorSystem(area, nil, []Behavior{NewPatrolBehavior(gate)}))

	var owners []string
	for i := 0; i < 4; i++ {
		sched.Update(w, 1)
		owners = append(owners, f.state.Behavior)
	}
	want := []string{"patrol", "", "patrol", ""}
	for i := range want {
		if owners[i] != want[i] {
			t.Fatalf("owners = %q, want %q", owners, want)
		}
	}

	for _, name := range []string{"broken", "absent"} {
		f.patrol.GateScript = name
		ctx := &BehaviorContext{World: w, Entity: f.e, Transform: f.tr, Patrol: f.patrol}
		if gate.Holds(ctx) {
			t.Fatalf("gate %q should not hold", name)
		}
	}

	f.patrol.GateScript = ""
	if !gate.Holds(&BehaviorContext{World: w, Entity: f.e, Transform: f.tr, Patrol: f.patrol}) {
		t.Fatalf("no script should always hold")
	}
}

func TestSteer(t *testing.T) {
	t.Run("partial_step_and_turn", func(t *testing.T) {
		tr := &component.Transform{}
		agent := &component.NavAgent{Speed: 1, TurnRate: 1, Path: []common.Vec3{common.V3(10, 0, 0)}}
		if steer(tr, agent, 0.5) {
			t.Fatalf("should not arrive")
		}
		if tr.Position != common.V3(0.5, 0, 0) {
			t.Fatalf("position %v", tr.Position)
		}
		if math.Abs(tr.Rotation-math.Pi/4) > 1e-9 {
			t.Fatalf("rotation %v, want pi/4", tr.Rotation)
		}
	})

	t.Run("no_overshoot", func(t *testing.T) {
		tr := &component.Transform{}
		agent := &component.NavAgent{Speed: 100, Path: []common.Vec3{common.V3(0, 0, 3), common.V3(0, 0, 6)}}
		if steer(tr, agent, 1) {
			t.Fatalf("only the first waypoint should be consumed")
		}
		if tr.Position != common.V3(0, 0, 3) || len(agent.Path) != 1 {
			t.Fatalf("position %v path %v", tr.Position, agent.Path)
		}
	})

	t.Run("pops_leading_reached", func(t *testing.T) {
		tr := &component.Transform{}
		agent := &component.NavAgent{Path: []common.Vec3{common.V3(0.1, 0, 0), common.V3(5, 0, 0)}}
		if steer(tr, agent, 1) || len(agent.Path) != 1 {
			t.Fatalf("expected leading waypoint popped, path %v", agent.Path)
		}
	})

	t.Run("already_there", func(t *testing.T) {
		tr := &component.Transform{Position: common.V3(2, 0, 2)}
		agent := &component.NavAgent{Speed: 1, Path: []common.Vec3{common.V3(2, 0, 2.2)}}
		if !steer(tr, agent, 0) || len(agent.Path) != 0 {
			t.Fatalf("waypoint inside threshold should count as arrival")
		}
	})
}
