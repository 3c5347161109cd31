package prefabs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind says what sort of prefab file changed.
type ChangeKind int

const (
	AreaChanged ChangeKind = iota + 1
	ScriptChanged
)

// Change is one debounced file notification.
type Change struct {
	Kind ChangeKind
	Path string
	// Name is the area or script name without directory or extension.
	Name string
}

// Watcher reports edits to area specs and gate scripts on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	Events   chan Change
	Errors   chan error
	closeCh  chan struct{}
	once     sync.Once
	debounce time.Duration
}

// NewWatcher watches the given directories, or Dir/areas and Dir/scripts
// when none are given. Missing default directories are skipped.
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	explicit := len(dirs) > 0
	if !explicit {
		dirs = []string{filepath.Join(Dir, "areas"), filepath.Join(Dir, "scripts")}
	}
	for _, dir := range dirs {
		if !explicit {
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher:  w,
		Events:   make(chan Change, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)
	defer close(w.Errors)

	last := make(map[string]time.Time)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			change, ok := classify(ev.Name)
			if !ok {
				continue
			}
			now := time.Now()
			if t, ok := last[ev.Name]; ok && now.Sub(t) < w.debounce {
				continue
			}
			last[ev.Name] = now
			select {
			case w.Events <- change:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func classify(path string) (Change, bool) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	switch {
	case isSpecFile(path):
		return Change{Kind: AreaChanged, Path: path, Name: name}, true
	case isScriptFile(path):
		return Change{Kind: ScriptChanged, Path: path, Name: name}, true
	}
	return Change{}, false
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tengo"
}
