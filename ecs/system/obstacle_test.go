package system

import (
	"testing"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/ecs"
	"github.com/milk9111/navgraph/ecs/component"
)

type recordingSink struct {
	calls   [][]common.Vec3
	rebuild bool
}

func (s *recordingSink) UpdateObstacles(points []common.Vec3) bool {
	s.calls = append(s.calls, append([]common.Vec3(nil), points...))
	return s.rebuild
}

func addHazard(t *testing.T, w *ecs.World, pos common.Vec3) *component.Transform {
	t.Helper()
	e := ecs.CreateEntity(w)
	tr := &component.Transform{Position: pos}
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), tr); err != nil {
		t.Fatal(err)
	}
	if err := ecs.Add(w, e, component.HazardComponent.Kind(), &component.Hazard{Radius: 1}); err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestObstacleSystemSkipsUnchangedSets(t *testing.T) {
	w := ecs.NewWorld()
	hazard := addHazard(t, w, common.V3(1, 0, 1))
	sink := &recordingSink{rebuild: true}
	sched := ecs.NewScheduler(NewObstacleSystem(sink))

	steps := []struct {
		name      string
		move      *common.Vec3
		rebuild   bool
		wantCalls int
	}{
		{"first_tick_sends", nil, true, 1},
		{"unchanged_skipped", nil, true, 1},
		{"moved_but_dropped", &common.Vec3{X: 2, Z: 1}, false, 2},
		{"dropped_is_retried", nil, true, 3},
		{"settled", nil, true, 3},
	}

	for _, step := range steps {
		if step.move != nil {
			hazard.Position = *step.move
		}
		sink.rebuild = step.rebuild
		sched.Update(w, 0.1)
		if len(sink.calls) != step.wantCalls {
			t.Fatalf("%s: calls = %d, want %d", step.name, len(sink.calls), step.wantCalls)
		}
	}

	last := sink.calls[len(sink.calls)-1]
	if len(last) != 1 || last[0] != common.V3(2, 0, 1) {
		t.Fatalf("last obstacle set %v", last)
	}
}

func TestObstacleSystemReportsRemovedHazards(t *testing.T) {
	w := ecs.NewWorld()
	addHazard(t, w, common.V3(1, 0, 1))
	e := ecs.Entities(w)[0]
	sink := &recordingSink{rebuild: true}
	sys := NewObstacleSystem(sink)

	sys.Update(w)
	ecs.DestroyEntity(w, e)
	sys.Update(w)

	if len(sink.calls) != 2 || len(sink.calls[1]) != 0 {
		t.Fatalf("expected an empty set after removal, got %v", sink.calls)
	}
}

func TestPhysicsSystemCopiesBodyPositions(t *testing.T) {
	w := ecs.NewWorld()
	pw := ecs.NewPhysicsWorld(ecs.Bounds{})
	e := ecs.CreateEntity(w)
	tr := &component.Transform{Position: common.V3(0, 1, 0)}
	body := pw.AddHazard(e, tr.Position, common.V3(2, 0, 0), 1)
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), tr); err != nil {
		t.Fatal(err)
	}
	if err := ecs.Add(w, e, component.HazardComponent.Kind(), &component.Hazard{Radius: 1, Body: body}); err != nil {
		t.Fatal(err)
	}
	static := addHazard(t, w, common.V3(7, 0, 7))

	sink := &recordingSink{rebuild: true}
	sched := ecs.NewScheduler(NewPhysicsSystem(pw), NewObstacleSystem(sink))
	sched.Update(w, 0.5)

	if tr.Position.Distance(common.V3(1, 1, 0)) > 1e-6 {
		t.Fatalf("hazard transform %v", tr.Position)
	}
	if static.Position != common.V3(7, 0, 7) {
		t.Fatalf("static hazard moved")
	}
	if len(sink.calls) != 1 || len(sink.calls[0]) != 2 {
		t.Fatalf("obstacles should see the moved hazard in the same tick, got %v", sink.calls)
	}
}
