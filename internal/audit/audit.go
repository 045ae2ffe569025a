// Package audit implements the append-only, human-readable session log.
// One session's records are written contiguously and prior sessions are
// never rewritten.
package audit

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// Log writes timestamped lines to an append-only destination.
type Log struct {
	mu  sync.Mutex
	w   io.Writer
	f   *os.File
	now func() time.Time
}

// Open opens (or creates) the audit file at path in append mode.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", path, err)
	}
	return &Log{w: f, f: f, now: time.Now}, nil
}

// NewWriter wraps an arbitrary writer. Used by tests.
func NewWriter(w io.Writer) *Log {
	return &Log{w: w, now: time.Now}
}

// Printf appends a single timestamped record.
func (l *Log) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s - %s\n", l.now().Format(timeLayout), fmt.Sprintf(format, args...))
}

// Section appends a banner separating logical parts of a session.
func (l *Log) Section(title string) {
	rule := strings.Repeat("=", 80)
	l.Printf("%s", rule)
	l.Printf("%s", title)
	l.Printf("%s", rule)
}

// Close releases the underlying file, if any.
func (l *Log) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
