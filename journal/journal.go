// Package journal records bus events as zstd-compressed JSON lines, one
// file per hour.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/milk9111/navgraph/event"
)

// Record is one journal line.
type Record struct {
	Seq  uint64          `json:"seq"`
	Type event.Type      `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Writer appends records to <dir>/<prefix>-<yyyy-mm-dd-hh>.jsonl.zst.
type Writer struct {
	baseDir string
	prefix  string
	clock   func() time.Time
	log     *log.Logger

	mu      sync.Mutex
	seq     uint64
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

type Option func(*Writer)

func WithClock(clock func() time.Time) Option {
	return func(w *Writer) {
		if clock != nil {
			w.clock = clock
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.log = logger
		}
	}
}

func NewWriter(baseDir, prefix string, opts ...Option) *Writer {
	w := &Writer{
		baseDir: baseDir,
		prefix:  prefix,
		clock:   time.Now,
		log:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Subscribe journals every event published on bus until the returned func
// is called. Write failures are logged, not returned to the publisher.
func (w *Writer) Subscribe(bus *event.Bus) func() {
	return bus.SubscribeAll(func(evt event.Event) {
		if err := w.Append(evt); err != nil {
			w.log.Printf("journal: append %s: %v", evt.Type, err)
		}
	})
}

// Append writes evt as one line and flushes it.
func (w *Writer) Append(evt event.Event) error {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("journal: marshal %s: %w", evt.Type, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.clock().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	w.seq++
	b, err := json.Marshal(Record{Seq: w.seq, Type: evt.Type, Time: evt.Time, Data: data})
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("journal: %w", err)
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	w.log.Printf("journal: writing %s", path)
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		err = w.w.Flush()
	}
	if w.enc != nil {
		err = errors.Join(err, w.enc.Close())
		w.enc = nil
	}
	if w.f != nil {
		err = errors.Join(err, w.f.Close())
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// Files lists journal files for prefix under dir, oldest first.
func Files(dir, prefix string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadFile decodes every record in one journal file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer dec.Close()

	var out []Record
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return out, fmt.Errorf("journal: %s line %d: %w", path, len(out)+1, err)
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("journal: %s: %w", path, err)
	}
	return out, nil
}
