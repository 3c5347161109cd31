package main

import (
	"math"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/system"
)

// view maps the world XZ plane onto the screen, +X right and +Z down.
type view struct {
	minX, minZ float64
	scale      float64
	offX, offY float64
}

func fitView(w *system.World, width, height, margin float64) view {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	grow := func(p common.Vec3) {
		minX = math.Min(minX, p.X)
		minZ = math.Min(minZ, p.Z)
		maxX = math.Max(maxX, p.X)
		maxZ = math.Max(maxZ, p.Z)
	}
	for _, n := range w.Area.Graph().Nodes() {
		grow(n.Position)
	}
	for _, a := range w.Agents() {
		grow(a.Position)
	}
	if math.IsInf(minX, 1) {
		minX, minZ, maxX, maxZ = 0, 0, 1, 1
	}

	spanX := math.Max(maxX-minX, 1)
	spanZ := math.Max(maxZ-minZ, 1)
	scale := math.Min((width-2*margin)/spanX, (height-2*margin)/spanZ)
	return view{
		minX:  minX,
		minZ:  minZ,
		scale: scale,
		offX:  (width - spanX*scale) / 2,
		offY:  (height - spanZ*scale) / 2,
	}
}

func (v view) project(p common.Vec3) (float32, float32) {
	return float32(v.offX + (p.X-v.minX)*v.scale), float32(v.offY + (p.Z-v.minZ)*v.scale)
}

func (v view) length(d float64) float32 {
	return float32(d * v.scale)
}
