package prefabs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/milk9111/navgraph/common"
)

func TestEmbeddedAreasLoad(t *testing.T) {
	names, err := AreaNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) < 2 {
		t.Fatalf("expected embedded areas, got %v", names)
	}
	for _, name := range names {
		spec, err := LoadAreaSpec(name)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if spec.Name != name {
			t.Fatalf("area file %s declares name %q", name, spec.Name)
		}
		if len(spec.NodePositions()) == 0 {
			t.Fatalf("area %s has no nodes", name)
		}
	}
}

func TestCourtyardShape(t *testing.T) {
	spec, err := LoadAreaSpec("courtyard")
	if err != nil {
		t.Fatal(err)
	}
	nodes := spec.NodePositions()
	if len(nodes) != 81 {
		t.Fatalf("expected 9x9 grid, got %d nodes", len(nodes))
	}
	if nodes[10] != common.V3(5, 0, 5) {
		t.Fatalf("node 10 = %v", nodes[10])
	}
	guard := spec.Agents[0]
	if guard.Patrol == nil || len(guard.Patrol.Points) != 4 || guard.Target != "intruder" {
		t.Fatalf("unexpected guard spec %+v", guard)
	}
	if !spec.Hazards[0].Velocity.Moving() || spec.Hazards[1].Velocity.Moving() {
		t.Fatalf("expected one moving and one static hazard")
	}
}

func TestParseAreaSpecRejects(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"missing_name", "nodes: {points: [[0,0,0]]}", "name"},
		{"unknown_field", "name: a\nnodes: {}\nfoo: 1", "foo"},
		{"bad_point", "name: a\nnodes: {points: [[1]]}", "points"},
		{"negative_radius", "name: a\nnodes: {}\nnav: {connectivity_radius: -1}", "connectivity_radius"},
		{"empty_patrol", "name: a\nnodes: {}\nagents: [{name: g, position: [0,0,0], speed: 1, patrol: {points: []}}]", "points"},
		{"duplicate_name", "name: a\nnodes: {}\nagents: [{name: g, position: [0,0,0], speed: 1}]\nhazards: [{name: g, position: [1,0,1]}]", "duplicate"},
		{"unknown_target", "name: a\nnodes: {}\nagents: [{name: g, position: [0,0,0], speed: 1, target: nobody}]", "nobody"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseAreaSpec(c.name+".yaml", []byte(c.yaml))
			if !errors.Is(err, ErrInvalidSpec) {
				t.Fatalf("expected ErrInvalidSpec, got %v", err)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Fatalf("error %q does not mention %q", err, c.want)
			}
		})
	}
}

func TestPointVec3(t *testing.T) {
	cases := []struct {
		p    Point
		want common.Vec3
	}{
		{Point{1, 2, 3}, common.V3(1, 2, 3)},
		{Point{1, 2}, common.V3(1, 0, 2)},
		{Point{3, 0, 4}, common.V3(3, 0, 4)},
		{nil, common.Vec3{}},
	}
	for _, c := range cases {
		if got := c.p.Vec3(); got != c.want {
			t.Fatalf("%v.Vec3() = %v, want %v", c.p, got, c.want)
		}
	}
	if got := PointOf(common.V3(4, 5, 6)).Vec3(); got != common.V3(4, 5, 6) {
		t.Fatalf("PointOf round trip = %v", got)
	}
}

func TestTwoElementPointsLieOnGround(t *testing.T) {
	spec, err := ParseAreaSpec("flat.yaml", []byte("name: flat\nnodes: {points: [[3, 4], [1, 2, 5]]}\nhazards: [{name: h, position: [6, 7]}]\n"))
	if err != nil {
		t.Fatal(err)
	}
	nodes := spec.NodePositions()
	if nodes[0] != common.V3(3, 0, 4) || nodes[1] != common.V3(1, 2, 5) {
		t.Fatalf("nodes = %v", nodes)
	}
	if got := spec.Hazards[0].Position.Vec3(); got != common.V3(6, 0, 7) {
		t.Fatalf("hazard position = %v", got)
	}
}

func withDiskDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := Dir
	Dir = dir
	t.Cleanup(func() { Dir = old })
	for _, sub := range []string{"areas", "scripts"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDiskOverridesEmbedded(t *testing.T) {
	dir := withDiskDir(t)
	override := "name: corridor\nnodes: {points: [[0,0,0], [3,0,0]]}\n"
	if err := os.WriteFile(filepath.Join(dir, "areas", "corridor.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "areas", "scratch.yaml"), []byte("name: scratch\nnodes: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scripts", "always.tengo"), []byte("eligible = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	spec, err := LoadAreaSpec("corridor")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(spec.NodePositions()); n != 2 {
		t.Fatalf("expected disk override with 2 nodes, got %d", n)
	}
	if _, ok := ModTime("corridor.yaml"); !ok {
		t.Fatalf("expected a disk mod time")
	}

	names, _ := AreaNames()
	if !strings.Contains(strings.Join(names, ","), "scratch") {
		t.Fatalf("disk-only area missing from %v", names)
	}

	src, err := LoadScript("scripts/always")
	if err != nil || !strings.Contains(string(src), "false") {
		t.Fatalf("expected disk script, got %q err=%v", src, err)
	}
}

func TestLoadScriptEmbedded(t *testing.T) {
	for _, name := range []string{"patrol_gate", "patrol_gate.tengo", "prefabs/scripts/patrol_gate.tengo"} {
		src, err := LoadScript(name)
		if err != nil || !strings.Contains(string(src), "eligible") {
			t.Fatalf("LoadScript(%q) = %q, %v", name, src, err)
		}
	}
}

func TestWatcherReportsEdits(t *testing.T) {
	dir := withDiskDir(t)
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "areas", "yard.yaml"), []byte("name: yard\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "areas", "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ch := <-w.Events:
		if ch.Kind != AreaChanged || ch.Name != "yard" {
			t.Fatalf("unexpected change %+v", ch)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}
