// Package runlog is the per-run message sink. A *Log is created by the
// orchestrator for one transformation and passed explicitly to every
// component; nothing in the transformation core logs through global state.
//
// Each entry is kept in append order so the caller can show the full message
// trail next to the result, including when the run fails. Entries are also
// mirrored to a zap logger for operators.
package runlog

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level is the severity of an entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Fields are structured key/values attached to an entry.
type Fields map[string]any

// Entry is one message of the run log.
type Entry struct {
	Time    time.Time `json:"timestamp"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Fields  Fields    `json:"fields,omitempty"`
}

type store struct {
	mu      sync.Mutex
	entries []Entry
}

// Log accumulates entries. It is safe for concurrent use.
type Log struct {
	s   *store
	zl  *zap.Logger
	now func() time.Time
}

// New returns an empty log mirrored to zl. A nil zl disables mirroring.
func New(zl *zap.Logger) *Log {
	if zl == nil {
		zl = zap.NewNop()
	}
	return &Log{s: &store{}, zl: zl, now: time.Now}
}

// Discard returns a log that keeps entries but mirrors nowhere.
func Discard() *Log { return New(nil) }

// With returns a log sharing l's entries whose zap mirror carries the extra
// fields (e.g. the run id).
func (l *Log) With(fields ...zap.Field) *Log {
	return &Log{s: l.s, zl: l.zl.With(fields...), now: l.now}
}

// Info appends an informational entry.
func (l *Log) Info(msg string, f Fields) { l.add(LevelInfo, msg, f) }

// Warn appends a warning entry.
func (l *Log) Warn(msg string, f Fields) { l.add(LevelWarning, msg, f) }

// Error appends an error entry.
func (l *Log) Error(msg string, f Fields) { l.add(LevelError, msg, f) }

// Entries returns a copy of all entries so far.
func (l *Log) Entries() []Entry {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	out := make([]Entry, len(l.s.entries))
	copy(out, l.s.entries)
	return out
}

// Count returns how many entries have the given level.
func (l *Log) Count(level Level) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (l *Log) add(level Level, msg string, f Fields) {
	e := Entry{Time: l.now(), Level: level, Message: msg, Fields: f}

	l.s.mu.Lock()
	l.s.entries = append(l.s.entries, e)
	l.s.mu.Unlock()

	zf := make([]zap.Field, 0, len(f))
	for k, v := range f {
		zf = append(zf, zap.Any(k, v))
	}
	switch level {
	case LevelWarning:
		l.zl.Warn(msg, zf...)
	case LevelError:
		l.zl.Error(msg, zf...)
	default:
		l.zl.Info(msg, zf...)
	}
}
