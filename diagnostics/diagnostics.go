// Package diagnostics provides optional field-debugging trace logging:
// one CSV row per received frame, gated by configuration and off by
// default, without changing any frame-layer semantics. Generalized from
// doismellburning-samoyed's log.go (daily-named CSV log files, kept
// open across writes) using lestrrat-go/strftime for the file-name
// pattern instead of a single hardcoded "2006-01-02.log" format.
package diagnostics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// defaultPattern names one file per day, mirroring log.go's daily-names
// behavior ("YYYY-MM-DD.log") but expressed as a strftime pattern so
// it's configurable.
const defaultPattern = "%Y-%m-%d-edges.csv"

// Tracer writes one CSV row per received frame: timestamp, RSSI, and
// the byte values the caller passes (heatlinkd passes the frame's
// decoded body). It rotates to a new file whenever the formatted name changes
// (normally at midnight).
type Tracer struct {
	dir     string
	pattern *strftime.Strftime

	mu       sync.Mutex
	openName string
	fp       *os.File
	w        *csv.Writer
	log      *log.Logger
}

// Open returns a Tracer writing under dir, named per pattern (a
// strftime format string). An empty pattern uses defaultPattern.
func Open(dir, pattern string) (*Tracer, error) {
	if pattern == "" {
		pattern = defaultPattern
	}
	f, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: bad trace file pattern %q: %w", pattern, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("diagnostics: create trace dir %s: %w", dir, err)
	}
	return &Tracer{dir: dir, pattern: f, log: log.With("component", "diagnostics")}, nil
}

// TraceFrame appends one row: the wall-clock time, sampled RSSI, and
// each value of edges in order. heatlinkd passes each published frame's
// decoded body bytes, not edge intervals.
func (t *Tracer) TraceFrame(rssi uint8, edges []uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.rotateLocked(); err != nil {
		t.log.Warn("trace rotate failed", "err", err)
		return
	}

	row := make([]string, 0, len(edges)+2)
	row = append(row, time.Now().Format(time.RFC3339Nano))
	row = append(row, strconv.Itoa(int(rssi)))
	for _, e := range edges {
		row = append(row, strconv.Itoa(int(e)))
	}
	if err := t.w.Write(row); err != nil {
		t.log.Warn("trace write failed", "err", err)
		return
	}
	t.w.Flush()
}

// rotateLocked opens a new file if the formatted name has changed since
// the last write. Caller must hold t.mu.
func (t *Tracer) rotateLocked() error {
	name := filepath.Join(t.dir, t.pattern.FormatString(time.Now()))
	if name == t.openName && t.fp != nil {
		return nil
	}
	if t.fp != nil {
		t.w.Flush()
		t.fp.Close()
	}
	fp, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	t.fp = fp
	t.w = csv.NewWriter(fp)
	t.openName = name
	return nil
}

// Close flushes and closes the currently open trace file, if any.
func (t *Tracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fp == nil {
		return nil
	}
	t.w.Flush()
	err := t.fp.Close()
	t.fp = nil
	return err
}
