package component

import "github.com/milk9111/navgraph/common"

// Patrol cycles an agent through a fixed list of points.
type Patrol struct {
	Points   []common.Vec3
	Index    int
	Priority int
	// EngageRange is the target distance at or below which patrol yields.
	// Zero disables the proximity gate.
	EngageRange float64
	// GateScript optionally names a tengo script under prefabs/scripts that
	// must set `eligible` for patrol to run.
	GateScript string
}

// Current returns the patrol point at Index.
func (p *Patrol) Current() (common.Vec3, bool) {
	if p == nil || len(p.Points) == 0 {
		return common.Vec3{}, false
	}
	if p.Index < 0 || p.Index >= len(p.Points) {
		p.Index = 0
	}
	return p.Points[p.Index], true
}

// Advance moves Index to the next point, wrapping around.
func (p *Patrol) Advance() {
	if p == nil || len(p.Points) == 0 {
		return
	}
	p.Index = (p.Index + 1) % len(p.Points)
}

var PatrolComponent = NewComponent[Patrol]()
