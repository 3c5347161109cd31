package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/navgraph/prefabs"
	"github.com/milk9111/navgraph/system"
)

const (
	baseWidth  = 1280
	baseHeight = 720
	tps        = 60
	margin     = 40
)

var errQuit = errors.New("quit")

type Game struct {
	world    *system.World
	view     view
	face     ebtext.Face
	ui       *ebitenui.UI
	changes  <-chan prefabs.Change
	paused   bool
	quit     bool
	edges    bool
	selected int
	status   string
	frames   int

	clipboardOK bool
}

func NewGame(world *system.World, debug bool, changes <-chan prefabs.Change, clipboardOK bool) *Game {
	ebiten.SetTPS(tps)
	g := &Game{
		world:       world,
		face:        ebtext.NewGoXFace(basicfont.Face7x13),
		changes:     changes,
		edges:       debug,
		clipboardOK: clipboardOK,
	}
	g.view = fitView(world, baseWidth, baseHeight, margin)
	g.ui = NewPauseUI(g)
	return g
}

func (g *Game) Update() error {
	if g.quit {
		return errQuit
	}
	g.frames++
	g.pollChanges()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		if n := len(g.world.Agents()); n > 0 {
			g.selected = (g.selected + 1) % n
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		g.edges = !g.edges
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copySelectedPath()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reload(g.world.Spec.Name)
	}

	if g.paused {
		g.ui.Update()
		if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
			g.world.Step(1.0 / tps)
		}
		return nil
	}
	g.world.Step(1.0 / tps)
	return nil
}

func (g *Game) pollChanges() {
	for {
		select {
		case ch, ok := <-g.changes:
			if !ok {
				g.changes = nil
				return
			}
			switch ch.Kind {
			case prefabs.ScriptChanged:
				g.world.InvalidateScripts()
				g.status = "reloaded script " + ch.Name
			case prefabs.AreaChanged:
				if ch.Name == g.world.Spec.Name {
					g.reload(ch.Name)
				}
			}
		default:
			return
		}
	}
}

func (g *Game) reload(name string) {
	spec, err := prefabs.LoadAreaSpec(name)
	if err == nil {
		err = g.world.Reload(spec)
	}
	if err != nil {
		g.status = "reload failed: " + err.Error()
		log.Printf("navview: %v", err)
		return
	}
	g.selected = 0
	g.view = fitView(g.world, baseWidth, baseHeight, margin)
	g.status = "reloaded " + name
}

func (g *Game) selectedAgent() (system.AgentInfo, bool) {
	agents := g.world.Agents()
	if len(agents) == 0 {
		return system.AgentInfo{}, false
	}
	if g.selected >= len(agents) {
		g.selected = 0
	}
	return agents[g.selected], true
}

func (g *Game) copySelectedPath() {
	a, ok := g.selectedAgent()
	if !ok {
		return
	}
	if !g.clipboardOK {
		g.status = "clipboard unavailable"
		return
	}
	b, err := json.Marshal(struct {
		Agent    string          `json:"agent"`
		Position prefabs.Point   `json:"position"`
		Path     []prefabs.Point `json:"path"`
	}{Agent: a.Name, Position: prefabs.PointOf(a.Position), Path: toPoints(a)})
	if err != nil {
		g.status = err.Error()
		return
	}
	clipboard.Write(clipboard.FmtText, b)
	g.status = fmt.Sprintf("copied %d waypoints of %s", len(a.Path), a.Name)
}

func toPoints(a system.AgentInfo) []prefabs.Point {
	out := make([]prefabs.Point, 0, len(a.Path))
	for _, p := range a.Path {
		out = append(out, prefabs.PointOf(p))
	}
	return out
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0x14, G: 0x16, B: 0x1c, A: 0xff})

	graph := g.world.Area.Graph()
	nodes := graph.Nodes()
	if g.edges {
		for _, n := range nodes {
			x0, y0 := g.view.project(n.Position)
			for _, id := range n.Neighbors {
				if id < n.ID {
					continue
				}
				other, ok := graph.Node(id)
				if !ok {
					continue
				}
				x1, y1 := g.view.project(other.Position)
				vector.StrokeLine(screen, x0, y0, x1, y1, 1, color.RGBA{R: 0x40, G: 0x48, B: 0x58, A: 0xff}, true)
			}
		}
	}
	for _, n := range nodes {
		x, y := g.view.project(n.Position)
		vector.FillCircle(screen, x, y, 2, colornames.Slategray, true)
	}

	obstacleRadius := g.view.length(graph.Config().ObstacleRadius)
	for _, h := range g.world.Hazards() {
		x, y := g.view.project(h.Position)
		c := colornames.Darkorange
		if h.Moving {
			c = colornames.Crimson
		}
		vector.StrokeCircle(screen, x, y, obstacleRadius, 2, c, true)
	}

	for i, a := range g.world.Agents() {
		g.drawAgent(screen, a, i == g.selected)
	}

	g.drawHUD(screen)
	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) drawAgent(screen *ebiten.Image, a system.AgentInfo, selected bool) {
	body := colornames.Mediumseagreen
	if selected {
		body = colornames.Gold
		for _, p := range a.Patrol {
			x, y := g.view.project(p)
			vector.StrokeRect(screen, x-4, y-4, 8, 8, 1, colornames.Gold, false)
		}
	}

	x, y := g.view.project(a.Position)
	px, py := x, y
	for _, wp := range a.Path {
		wx, wy := g.view.project(wp)
		vector.StrokeLine(screen, px, py, wx, wy, 1.5, colornames.Skyblue, true)
		vector.FillCircle(screen, wx, wy, 3, colornames.Skyblue, true)
		px, py = wx, wy
	}

	vector.FillCircle(screen, x, y, 6, body, true)
	// Yaw zero faces +Z, which is screen down.
	hx := x + float32(10*math.Sin(a.Rotation))
	hy := y + float32(10*math.Cos(a.Rotation))
	vector.StrokeLine(screen, x, y, hx, hy, 2, colornames.White, true)

	g.drawText(screen, a.Name, float64(x)+8, float64(y)-16, colornames.Lightgray)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	graph := g.world.Area.Graph()
	rebuilds, dropped := g.world.Area.Scheduler().Stats()
	lines := []string{
		fmt.Sprintf("area %s  nodes %d  edges %d  obstacles %d  FPS %.1f",
			g.world.Spec.Name, graph.Len(), graph.EdgeCount(), len(graph.Obstacles()), ebiten.ActualFPS()),
		fmt.Sprintf("rebuilds %d  dropped %d", rebuilds, dropped),
	}
	if a, ok := g.selectedAgent(); ok {
		lines = append(lines, fmt.Sprintf("%s: %s/%s  patrol %d/%d  waypoints %d",
			a.Name, a.Behavior, a.State, a.Index, len(a.Patrol), len(a.Path)))
	}
	lines = append(lines, "tab select  e edges  c copy path  r reload  esc pause  . step")
	if g.status != "" {
		lines = append(lines, g.status)
	}
	for i, l := range lines {
		g.drawText(screen, l, 8, float64(8+i*16), colornames.White)
	}
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64, c color.Color) {
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	ebtext.Draw(screen, s, g.face, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
