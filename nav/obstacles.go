package nav

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/milk9111/navgraph/common"
)

const (
	rtreeMinChildren = 4
	rtreeMaxChildren = 16
	obstacleTol      = 1e-6
)

type obstaclePoint struct {
	pos common.Vec3
}

func (o obstaclePoint) Bounds() rtreego.Rect {
	return rtreego.Point{o.pos.X, o.pos.Y, o.pos.Z}.ToRect(obstacleTol)
}

// SetObstacles replaces the obstacle list. Adjacency is not rebuilt here.
func (g *Graph) SetObstacles(points []common.Vec3) {
	if g == nil {
		return
	}
	g.obstacles = append(g.obstacles[:0:0], points...)
	if len(g.obstacles) == 0 {
		g.index = nil
		return
	}
	objs := make([]rtreego.Spatial, 0, len(g.obstacles))
	for _, p := range g.obstacles {
		objs = append(objs, obstaclePoint{pos: p})
	}
	g.index = rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren, objs...)
}

// Obstacles returns a copy of the current obstacle list.
func (g *Graph) Obstacles() []common.Vec3 {
	if g == nil || len(g.obstacles) == 0 {
		return nil
	}
	return append([]common.Vec3(nil), g.obstacles...)
}

// IsBlocked reports whether any obstacle sits on the open segment a-b: its
// projection parameter is strictly inside (0,1) and it lies closer than the
// obstacle radius to the projected point.
func (g *Graph) IsBlocked(a, b common.Vec3) bool {
	if g == nil || len(g.obstacles) == 0 {
		return false
	}
	ab := b.Sub(a)
	lenSq := ab.LengthSquared()
	if lenSq == 0 {
		return false
	}
	radius := g.cfg.ObstacleRadius
	for _, p := range g.candidates(a, b, radius) {
		t := p.Sub(a).Dot(ab) / lenSq
		if t <= 0 || t >= 1 {
			continue
		}
		closest := a.Add(ab.Scale(t))
		if p.Distance(closest) < radius {
			return true
		}
	}
	return false
}

// candidates narrows the obstacle list to points inside the segment's bounding
// box grown by radius.
func (g *Graph) candidates(a, b common.Vec3, radius float64) []common.Vec3 {
	if g.index == nil {
		return g.obstacles
	}
	lo := rtreego.Point{
		math.Min(a.X, b.X) - radius,
		math.Min(a.Y, b.Y) - radius,
		math.Min(a.Z, b.Z) - radius,
	}
	hi := rtreego.Point{
		math.Max(a.X, b.X) + radius,
		math.Max(a.Y, b.Y) + radius,
		math.Max(a.Z, b.Z) + radius,
	}
	box, err := rtreego.NewRectFromPoints(lo, hi)
	if err != nil {
		return g.obstacles
	}
	hits := g.index.SearchIntersect(box)
	out := make([]common.Vec3, 0, len(hits))
	for _, h := range hits {
		if o, ok := h.(obstaclePoint); ok {
			out = append(out, o.pos)
		}
	}
	return out
}
