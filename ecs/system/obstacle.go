package system

import (
	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/ecs"
	"github.com/milk9111/navgraph/ecs/component"
)

// ObstacleSink receives the obstacle set once per tick. *nav.Area satisfies it.
type ObstacleSink interface {
	UpdateObstacles(points []common.Vec3) bool
}

// ObstacleSystem reports hazard positions to the navigation area. An
// unchanged set is not resent unless the last send was rate limited, so a
// dropped rebuild is retried until the graph catches up.
type ObstacleSystem struct {
	sink    ObstacleSink
	last    []common.Vec3
	pending bool
	sent    bool
}

func NewObstacleSystem(sink ObstacleSink) *ObstacleSystem {
	return &ObstacleSystem{sink: sink}
}

// SetSink swaps the destination area and forces the next tick to send.
func (s *ObstacleSystem) SetSink(sink ObstacleSink) {
	if s == nil {
		return
	}
	s.sink = sink
	s.last = nil
	s.sent = false
	s.pending = false
}

func (s *ObstacleSystem) Update(w *ecs.World) {
	if s == nil || w == nil || s.sink == nil {
		return
	}

	points := make([]common.Vec3, 0, len(s.last))
	ecs.ForEach2(w, component.HazardComponent.Kind(), component.TransformComponent.Kind(), func(_ ecs.Entity, _ *component.Hazard, tr *component.Transform) {
		points = append(points, tr.Position)
	})

	if s.sent && !s.pending && samePoints(points, s.last) {
		return
	}

	rebuilt := s.sink.UpdateObstacles(points)
	s.last = points
	s.sent = true
	s.pending = !rebuilt
}

func samePoints(a, b []common.Vec3) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
