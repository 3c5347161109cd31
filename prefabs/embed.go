package prefabs

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed areas/*.yaml
var AreasFS embed.FS

//go:embed area.schema.json
var areaSchema []byte

// Dir is the on-disk prefab root. Files under it override embedded ones so
// specs and scripts can be edited without a rebuild.
var Dir = "prefabs"

func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// Load reads an area file, preferring the on-disk copy.
func Load(name string) ([]byte, error) {
	clean := cleanAreaPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return AreasFS.ReadFile(clean)
}

func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskPath(cleanAreaPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// AreaNames lists embedded and on-disk areas without extension.
func AreaNames() ([]string, error) {
	seen := map[string]bool{}
	entries, err := fs.ReadDir(AreasFS, "areas")
	if err != nil {
		return nil, fmt.Errorf("prefabs: list areas: %w", err)
	}
	for _, e := range entries {
		if isSpecFile(e.Name()) {
			seen[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = true
		}
	}
	if disk, err := os.ReadDir(filepath.Join(Dir, "areas")); err == nil {
		for _, e := range disk {
			if !e.IsDir() && isSpecFile(e.Name()) {
				seen[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func areaFilename(name string) string {
	if isSpecFile(name) {
		return name
	}
	return name + ".yaml"
}

func cleanAreaPath(p string) string {
	if p == "" {
		return ""
	}
	s := filepath.ToSlash(p)
	s = strings.TrimPrefix(s, "prefabs/")
	s = strings.TrimPrefix(s, "areas/")
	return "areas/" + s
}

func cleanScriptPath(p string) string {
	if p == "" {
		return ""
	}

	s := filepath.ToSlash(p)

	if after, ok := strings.CutPrefix(s, "prefabs/scripts/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}

	if !strings.HasSuffix(s, ".tengo") {
		s += ".tengo"
	}

	return fmt.Sprintf("scripts/%s", s)
}

func diskPath(clean string) string {
	return filepath.Join(Dir, filepath.FromSlash(clean))
}
