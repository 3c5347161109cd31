package nav

import (
	"io"
	"log"
	"time"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/event"
)

// Area is one navigable region: its graph, its rebuild scheduler and the
// publisher that hears about rebuilds. Pass it to whatever needs paths;
// several areas can coexist.
type Area struct {
	name      string
	graph     *Graph
	scheduler *RebuildScheduler
	log       *log.Logger
	clock     func() time.Time
}

type AreaOption func(*Area)

// WithClock overrides the time source used by the rebuild limiter.
func WithClock(clock func() time.Time) AreaOption {
	return func(a *Area) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func WithLogger(logger *log.Logger) AreaOption {
	return func(a *Area) {
		if logger != nil {
			a.log = logger
		}
	}
}

// NewArea builds the graph for nodes. The initial build does not count
// against the rebuild interval.
func NewArea(name string, cfg Config, nodes []common.Vec3, pub event.Publisher, opts ...AreaOption) *Area {
	a := &Area{
		name:  name,
		log:   log.New(io.Discard, "", 0),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.graph = NewGraph(cfg, nodes)
	cfg = a.graph.Config()
	a.scheduler = NewRebuildScheduler(name, a.graph, pub, cfg.RebuildInterval, a.clock)
	a.log.Printf("nav: area %q built nodes=%d edges=%d radius=%.2f", name, a.graph.Len(), a.graph.EdgeCount(), cfg.ConnectivityRadius)
	return a
}

func (a *Area) Name() string {
	if a == nil {
		return ""
	}
	return a.name
}

// Graph exposes the graph for read-only consumers such as debug drawing.
func (a *Area) Graph() *Graph {
	if a == nil {
		return nil
	}
	return a.graph
}

func (a *Area) Scheduler() *RebuildScheduler {
	if a == nil {
		return nil
	}
	return a.scheduler
}

// FindPath returns the raw node-to-node route, or nil when unreachable.
func (a *Area) FindPath(start, end common.Vec3) Path {
	if a == nil {
		return nil
	}
	return a.graph.FindPath(start, end)
}

func (a *Area) Smooth(path Path) Path {
	if a == nil {
		return path.Clone()
	}
	return a.graph.Smooth(path)
}

// Route is FindPath followed by Smooth; what agents consume.
func (a *Area) Route(start, end common.Vec3) Path {
	return a.Smooth(a.FindPath(start, end))
}

// UpdateObstacles replaces the obstacle set, subject to rebuild rate limiting.
func (a *Area) UpdateObstacles(points []common.Vec3) bool {
	if a == nil {
		return false
	}
	rebuilt := a.scheduler.UpdateObstacles(points)
	if rebuilt {
		a.log.Printf("nav: area %q rebuilt obstacles=%d edges=%d", a.name, len(points), a.graph.EdgeCount())
	}
	return rebuilt
}

// Rebuild forces an adjacency rebuild.
func (a *Area) Rebuild() {
	if a == nil {
		return
	}
	a.scheduler.Rebuild()
}

// Cleanup releases all graph state; the area answers every query with an
// empty path afterwards.
func (a *Area) Cleanup() {
	if a == nil || a.graph == nil {
		return
	}
	rebuilds, dropped := a.scheduler.Stats()
	a.log.Printf("nav: area %q cleanup rebuilds=%d dropped=%d", a.name, rebuilds, dropped)
	a.graph.Cleanup()
}
