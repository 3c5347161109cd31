package nav

import (
	"time"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/event"
)

// RebuildScheduler applies obstacle updates to a graph immediately but rate
// limits the adjacency rebuild to one per interval. A request inside the
// window is dropped, not deferred.
type RebuildScheduler struct {
	area     string
	graph    *Graph
	pub      event.Publisher
	interval time.Duration
	clock    func() time.Time

	armed    bool
	last     time.Time
	rebuilds int
	dropped  int
}

func NewRebuildScheduler(area string, g *Graph, pub event.Publisher, interval time.Duration, clock func() time.Time) *RebuildScheduler {
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = defaultRebuildInterval
	}
	return &RebuildScheduler{
		area:     area,
		graph:    g,
		pub:      pub,
		interval: interval,
		clock:    clock,
	}
}

// UpdateObstacles replaces the obstacle set and rebuilds adjacency if the
// interval since the last rebuild has elapsed. It reports whether it rebuilt.
func (s *RebuildScheduler) UpdateObstacles(points []common.Vec3) bool {
	if s == nil || s.graph == nil {
		return false
	}
	s.graph.SetObstacles(points)

	now := s.clock()
	if s.armed && now.Sub(s.last) < s.interval {
		s.dropped++
		return false
	}
	s.rebuild(now)
	return true
}

// Rebuild recomputes adjacency now, ignoring the interval, and restarts it.
func (s *RebuildScheduler) Rebuild() {
	if s == nil || s.graph == nil {
		return
	}
	s.rebuild(s.clock())
}

func (s *RebuildScheduler) rebuild(now time.Time) {
	s.graph.BuildAdjacency()
	s.armed = true
	s.last = now
	s.rebuilds++

	if s.pub == nil {
		return
	}
	s.pub.Publish(event.Event{
		Type: event.GraphUpdated,
		Time: now,
		Data: event.GraphUpdatedData{
			Area:      s.area,
			Timestamp: now,
			Nodes:     s.graph.Len(),
			Edges:     s.graph.EdgeCount(),
			Obstacles: len(s.graph.obstacles),
		},
	})
}

// LastRebuild is the time of the last executed rebuild.
func (s *RebuildScheduler) LastRebuild() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	return s.last, s.armed
}

// Stats returns executed and dropped rebuild counts.
func (s *RebuildScheduler) Stats() (rebuilds, dropped int) {
	if s == nil {
		return 0, 0
	}
	return s.rebuilds, s.dropped
}
