package prefabs

import (
	"errors"
	"fmt"

	"github.com/milk9111/navgraph/common"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

// AreaSpec describes one navigable area: its graph, the agents patrolling it
// and the hazards that act as obstacles.
type AreaSpec struct {
	Name    string       `yaml:"name" json:"name"`
	Nav     NavSpec      `yaml:"nav" json:"nav"`
	Bounds  BoundsSpec   `yaml:"bounds" json:"bounds"`
	Nodes   NodesSpec    `yaml:"nodes" json:"nodes"`
	Agents  []AgentSpec  `yaml:"agents" json:"agents,omitempty"`
	Hazards []HazardSpec `yaml:"hazards" json:"hazards,omitempty"`
}

// NavSpec holds graph tuning. Zero values fall back to engine defaults.
type NavSpec struct {
	ConnectivityRadius  float64 `yaml:"connectivity_radius" json:"connectivity_radius,omitempty"`
	ObstacleRadius      float64 `yaml:"obstacle_radius" json:"obstacle_radius,omitempty"`
	SnapRadius          float64 `yaml:"snap_radius" json:"snap_radius,omitempty"`
	RebuildIntervalMS   int     `yaml:"rebuild_interval_ms" json:"rebuild_interval_ms,omitempty"`
	MaxSearchIterations int     `yaml:"max_search_iterations" json:"max_search_iterations,omitempty"`
}

type BoundsSpec struct {
	MinX float64 `yaml:"min_x" json:"min_x"`
	MinZ float64 `yaml:"min_z" json:"min_z"`
	MaxX float64 `yaml:"max_x" json:"max_x"`
	MaxZ float64 `yaml:"max_z" json:"max_z"`
}

// NodesSpec lists explicit node points and an optional regular grid; both
// contribute nodes, grid first.
type NodesSpec struct {
	Grid   *GridSpec `yaml:"grid" json:"grid,omitempty"`
	Points []Point   `yaml:"points" json:"points,omitempty"`
}

// GridSpec lays Cols x Rows nodes on the XZ plane starting at Origin.
type GridSpec struct {
	Origin  Point   `yaml:"origin" json:"origin,omitempty"`
	Cols    int     `yaml:"cols" json:"cols"`
	Rows    int     `yaml:"rows" json:"rows"`
	Spacing float64 `yaml:"spacing" json:"spacing"`
}

type AgentSpec struct {
	Name            string      `yaml:"name" json:"name"`
	Position        Point       `yaml:"position" json:"position"`
	Speed           float64     `yaml:"speed" json:"speed"`
	TurnRate        float64     `yaml:"turn_rate" json:"turn_rate,omitempty"`
	ArriveThreshold float64     `yaml:"arrive_threshold" json:"arrive_threshold,omitempty"`
	Patrol          *PatrolSpec `yaml:"patrol" json:"patrol,omitempty"`
	// Target names another agent or hazard this agent watches.
	Target string `yaml:"target" json:"target,omitempty"`
}

type PatrolSpec struct {
	Points      []Point `yaml:"points" json:"points"`
	Priority    int     `yaml:"priority" json:"priority,omitempty"`
	EngageRange float64 `yaml:"engage_range" json:"engage_range,omitempty"`
	GateScript  string  `yaml:"gate_script" json:"gate_script,omitempty"`
}

// HazardSpec is an obstacle point. A non-zero Velocity makes it a moving
// hazard simulated by the physics world.
type HazardSpec struct {
	Name     string  `yaml:"name" json:"name"`
	Position Point   `yaml:"position" json:"position"`
	Velocity Point   `yaml:"velocity" json:"velocity,omitempty"`
	Radius   float64 `yaml:"radius" json:"radius,omitempty"`
}

// Point is written as [x, y, z] in YAML, or [x, z] for a point on the
// ground plane.
type Point []float64

func (p Point) Vec3() common.Vec3 {
	switch len(p) {
	case 0:
		return common.Vec3{}
	case 1:
		return common.V3(p[0], 0, 0)
	case 2:
		return common.V3(p[0], 0, p[1])
	default:
		return common.V3(p[0], p[1], p[2])
	}
}

func (p Point) Moving() bool {
	return p.Vec3().LengthSquared() > 0
}

func PointOf(v common.Vec3) Point {
	return Point{v.X, v.Y, v.Z}
}

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// LoadAreaSpec loads, validates and checks an area spec. name may omit the
// .yaml extension.
func LoadAreaSpec(name string) (*AreaSpec, error) {
	filename := areaFilename(name)
	data, err := Load(filename)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return ParseAreaSpec(filename, data)
}

// ParseAreaSpec validates data against the area schema and decodes it.
func ParseAreaSpec(filename string, data []byte) (*AreaSpec, error) {
	if err := ValidateAreaSpec(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, filename, err)
	}
	var spec AreaSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	if err := spec.check(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, filename, err)
	}
	return &spec, nil
}

// check covers cross-references the schema cannot express.
func (s *AreaSpec) check() error {
	names := map[string]bool{}
	for _, a := range s.Agents {
		if names[a.Name] {
			return fmt.Errorf("duplicate name %q", a.Name)
		}
		names[a.Name] = true
	}
	for _, h := range s.Hazards {
		if names[h.Name] {
			return fmt.Errorf("duplicate name %q", h.Name)
		}
		names[h.Name] = true
	}
	for _, a := range s.Agents {
		if a.Target != "" && !names[a.Target] {
			return fmt.Errorf("agent %q targets unknown %q", a.Name, a.Target)
		}
		if a.Target == a.Name && a.Target != "" {
			return fmt.Errorf("agent %q targets itself", a.Name)
		}
	}
	return nil
}

// NodePositions expands the grid and explicit points into node positions.
func (s *AreaSpec) NodePositions() []common.Vec3 {
	var out []common.Vec3
	if g := s.Nodes.Grid; g != nil && g.Cols > 0 && g.Rows > 0 {
		origin := g.Origin.Vec3()
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Cols; c++ {
				out = append(out, origin.Add(common.V3(float64(c)*g.Spacing, 0, float64(r)*g.Spacing)))
			}
		}
	}
	for _, p := range s.Nodes.Points {
		out = append(out, p.Vec3())
	}
	return out
}
