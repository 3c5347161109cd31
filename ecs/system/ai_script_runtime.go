package system

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/navgraph/prefabs"
)

// ScriptLoader returns the source of a named gate script.
type ScriptLoader func(name string) ([]byte, error)

// ScriptGate runs the tengo script named by Patrol.GateScript and holds when
// the script leaves `eligible` true. Scripts are compiled once per name and
// run fresh on every evaluation. A script that fails to load or run does
// not hold.
//
// Inputs: has_target, distance, engage_range, index, point_count, tick,
// x, y, z.
type ScriptGate struct {
	load  ScriptLoader
	cache map[string]*gateRuntime
}

type gateRuntime struct {
	compiled *tengo.Compiled
	err      error
	reported bool
}

var gateInputs = []string{"has_target", "distance", "engage_range", "index", "point_count", "tick", "x", "y", "z"}

// NewScriptGate uses prefabs.LoadScript when load is nil.
func NewScriptGate(load ScriptLoader) *ScriptGate {
	if load == nil {
		load = prefabs.LoadScript
	}
	return &ScriptGate{load: load, cache: map[string]*gateRuntime{}}
}

// Invalidate drops compiled scripts so edited sources are picked up.
func (g *ScriptGate) Invalidate() {
	if g == nil {
		return
	}
	g.cache = map[string]*gateRuntime{}
}

func (g *ScriptGate) Holds(ctx *BehaviorContext) bool {
	if g == nil || ctx == nil || ctx.Patrol == nil {
		return true
	}
	name := strings.TrimSpace(ctx.Patrol.GateScript)
	if name == "" {
		return true
	}

	rt := g.runtime(name)
	if rt.err != nil {
		if !rt.reported && ctx.Log != nil {
			ctx.Log.Printf("ai: entity=%s gate script %q error: %v", ctx.Entity, name, rt.err)
			rt.reported = true
		}
		return false
	}

	eligible, err := rt.eval(ctx)
	if err != nil {
		if ctx.Log != nil {
			ctx.Log.Printf("ai: entity=%s gate script %q run error: %v", ctx.Entity, name, err)
		}
		return false
	}
	return eligible
}

func (g *ScriptGate) runtime(name string) *gateRuntime {
	if g.cache == nil {
		g.cache = map[string]*gateRuntime{}
	}
	if rt, ok := g.cache[name]; ok {
		return rt
	}
	rt := &gateRuntime{}
	rt.compiled, rt.err = compileGate(g.load, name)
	g.cache[name] = rt
	return rt
}

func compileGate(load ScriptLoader, name string) (*tengo.Compiled, error) {
	src, err := load(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	script := tengo.NewScript(src)
	for _, in := range gateInputs {
		if err := script.Add(in, 0); err != nil {
			return nil, err
		}
	}
	if err := script.Add("eligible", true); err != nil {
		return nil, err
	}
	script.SetImports(stdlib.GetModuleMap("math"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return compiled, nil
}

func (rt *gateRuntime) eval(ctx *BehaviorContext) (bool, error) {
	dist, hasTarget := targetDistance(ctx)
	var tick uint64
	if ctx.World != nil {
		tick = ctx.World.Tick()
	}
	pos := ctx.Transform.Position

	vars := map[string]any{
		"has_target":   hasTarget,
		"distance":     dist,
		"engage_range": ctx.Patrol.EngageRange,
		"index":        ctx.Patrol.Index,
		"point_count":  len(ctx.Patrol.Points),
		"tick":         int64(tick),
		"x":            pos.X,
		"y":            pos.Y,
		"z":            pos.Z,
		"eligible":     true,
	}
	for k, v := range vars {
		if err := rt.compiled.Set(k, v); err != nil {
			return false, err
		}
	}
	if err := rt.compiled.Run(); err != nil {
		return false, err
	}
	return rt.compiled.Get("eligible").Bool(), nil
}
