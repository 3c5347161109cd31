package nav

import (
	"errors"
	"fmt"

	"github.com/dhconnelly/rtreego"
	"github.com/milk9111/navgraph/common"
)

var ErrAsymmetricAdjacency = errors.New("nav: asymmetric adjacency")

// Node is a fixed navigable point. Neighbors holds node ids in ascending order.
type Node struct {
	ID        int
	Position  common.Vec3
	Neighbors []int
}

// Graph owns the navigable nodes and the current obstacle list.
//
// Adjacency is derived only from the distance threshold and the blocking test
// against the current obstacles, so it must be rebuilt whenever they change.
// Building is O(n^2) in node count; fine for scene-sized graphs.
type Graph struct {
	cfg       Config
	nodes     []*Node
	obstacles []common.Vec3
	index     *rtreego.Rtree
	edges     int
}

// NewGraph creates one node per position (ids follow input order) and builds
// adjacency with no obstacles.
func NewGraph(cfg Config, positions []common.Vec3) *Graph {
	g := &Graph{cfg: cfg.withDefaults()}
	for _, p := range positions {
		g.AddNode(p)
	}
	g.BuildAdjacency()
	return g
}

// Config returns the effective configuration.
func (g *Graph) Config() Config {
	if g == nil {
		return DefaultConfig()
	}
	return g.cfg
}

// AddNode appends a node and returns its id. Its neighbors are filled in by
// the next BuildAdjacency.
func (g *Graph) AddNode(pos common.Vec3) int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, &Node{ID: id, Position: pos})
	return id
}

// BuildAdjacency recomputes every neighbor list. Edges are added pairwise so
// the relation is symmetric by construction.
func (g *Graph) BuildAdjacency() {
	if g == nil {
		return
	}
	for _, n := range g.nodes {
		n.Neighbors = n.Neighbors[:0]
	}
	g.edges = 0
	r2 := g.cfg.ConnectivityRadius * g.cfg.ConnectivityRadius
	for i := 0; i < len(g.nodes); i++ {
		a := g.nodes[i]
		for j := i + 1; j < len(g.nodes); j++ {
			b := g.nodes[j]
			if a.Position.DistanceSquared(b.Position) >= r2 {
				continue
			}
			if g.IsBlocked(a.Position, b.Position) {
				continue
			}
			a.Neighbors = append(a.Neighbors, b.ID)
			b.Neighbors = append(b.Neighbors, a.ID)
			g.edges++
		}
	}
}

// CheckSymmetry reports the first pair where A lists B but B does not list A.
func (g *Graph) CheckSymmetry() error {
	if g == nil {
		return nil
	}
	for _, n := range g.nodes {
		for _, nb := range n.Neighbors {
			if nb < 0 || nb >= len(g.nodes) {
				return fmt.Errorf("%w: node %d lists missing node %d", ErrAsymmetricAdjacency, n.ID, nb)
			}
			if !containsID(g.nodes[nb].Neighbors, n.ID) {
				return fmt.Errorf("%w: %d -> %d has no reverse edge", ErrAsymmetricAdjacency, n.ID, nb)
			}
		}
	}
	return nil
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Nodes returns the node list. Callers must not mutate it.
func (g *Graph) Nodes() []*Node {
	if g == nil {
		return nil
	}
	return g.nodes
}

// Node returns the node with the given id.
func (g *Graph) Node(id int) (*Node, bool) {
	if g == nil || id < 0 || id >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// EdgeCount is the number of undirected edges from the last build.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Cleanup releases all node and obstacle state.
func (g *Graph) Cleanup() {
	if g == nil {
		return
	}
	g.nodes = nil
	g.obstacles = nil
	g.index = nil
	g.edges = 0
}
