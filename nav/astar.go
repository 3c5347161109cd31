package nav

import (
	"math"

	"github.com/milk9111/navgraph/common"
)

// Path is an ordered list of world positions. An empty Path means no route.
type Path []common.Vec3

func (p Path) Len() int { return len(p) }

func (p Path) Empty() bool { return len(p) == 0 }

// Clone returns an independent copy; nil stays nil.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path(nil), p...)
}

// Length is the summed segment length.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i-1].Distance(p[i])
	}
	return total
}

// searchNode is the per-call scratch for one graph node. It never lives on
// the shared Node so concurrent graphs and repeated searches cannot observe
// stale costs.
type searchNode struct {
	g      float64
	h      float64
	parent int
	open   bool
	closed bool
}

func (s *searchNode) f() float64 { return s.g + s.h }

// NearestNode maps p to the closest node within the snap radius whose segment
// from p is not blocked.
func (g *Graph) NearestNode(p common.Vec3) (int, bool) {
	if g == nil {
		return -1, false
	}
	best := -1
	bestDist := math.MaxFloat64
	limit := g.cfg.SnapRadius * g.cfg.SnapRadius
	for _, n := range g.nodes {
		d := p.DistanceSquared(n.Position)
		if d > limit || d >= bestDist {
			continue
		}
		if g.IsBlocked(p, n.Position) {
			continue
		}
		best = n.ID
		bestDist = d
	}
	return best, best >= 0
}

// FindPath runs A* between the nodes nearest to start and end and returns the
// node positions of a cost-minimal route, or nil when there is none.
//
// The open set is scanned linearly for the lowest g+h (ties go to the entry
// found first), which is O(n) per expansion.
func (g *Graph) FindPath(start, end common.Vec3) Path {
	if g == nil || len(g.nodes) == 0 {
		return nil
	}
	startID, ok := g.NearestNode(start)
	if !ok {
		return nil
	}
	goalID, ok := g.NearestNode(end)
	if !ok {
		return nil
	}
	goal := g.nodes[goalID].Position

	scratch := make([]searchNode, len(g.nodes))
	for i := range scratch {
		scratch[i].parent = -1
	}
	scratch[startID] = searchNode{
		g:      0,
		h:      g.nodes[startID].Position.Distance(goal),
		parent: -1,
		open:   true,
	}

	open := make([]int, 0, 64)
	open = append(open, startID)

	iterations := 0
	for len(open) > 0 {
		if g.cfg.MaxSearchIterations > 0 && iterations >= g.cfg.MaxSearchIterations {
			return nil
		}
		iterations++

		// find node with lowest f
		bestIdx := 0
		bestScore := scratch[open[0]].f()
		for i := 1; i < len(open); i++ {
			if f := scratch[open[i]].f(); f < bestScore {
				bestScore = f
				bestIdx = i
			}
		}
		currentID := open[bestIdx]
		if currentID == goalID {
			return g.reconstructPath(scratch, currentID)
		}

		open = append(open[:bestIdx], open[bestIdx+1:]...)
		current := &scratch[currentID]
		current.open = false
		current.closed = true

		pos := g.nodes[currentID].Position
		for _, nbID := range g.nodes[currentID].Neighbors {
			nb := &scratch[nbID]
			if nb.closed {
				continue
			}
			nbPos := g.nodes[nbID].Position
			tentative := current.g + pos.Distance(nbPos)
			if !nb.open {
				nb.open = true
				open = append(open, nbID)
			} else if tentative >= nb.g {
				continue
			}
			nb.parent = currentID
			nb.g = tentative
			nb.h = nbPos.Distance(goal)
		}
	}

	return nil
}

func (g *Graph) reconstructPath(scratch []searchNode, goalID int) Path {
	path := make(Path, 0, 16)
	for id := goalID; id != -1; id = scratch[id].parent {
		path = append(path, g.nodes[id].Position)
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
