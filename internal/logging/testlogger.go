package logging

import (
	"sync"
)

// Entry is one line captured by a TestLogger.
type Entry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// TestLogger records every entry in memory. Children created with With share
// the parent's buffer so assertions can be made on the root logger.
type TestLogger struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  []Field
}

// NewTestLogger creates an empty recording logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

func (tl *TestLogger) record(level, msg string, fields []Field) {
	m := make(map[string]any, len(tl.fields)+len(fields))
	for _, f := range tl.fields {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	*tl.entries = append(*tl.entries, Entry{Level: level, Msg: msg, Fields: m})
}

func (tl *TestLogger) Debug(msg string, fields ...Field) { tl.record("debug", msg, fields) }
func (tl *TestLogger) Info(msg string, fields ...Field)  { tl.record("info", msg, fields) }
func (tl *TestLogger) Warn(msg string, fields ...Field)  { tl.record("warn", msg, fields) }
func (tl *TestLogger) Error(msg string, fields ...Field) { tl.record("error", msg, fields) }

func (tl *TestLogger) With(fields ...Field) Logger {
	merged := append(append([]Field(nil), tl.fields...), fields...)
	return &TestLogger{mu: tl.mu, entries: tl.entries, fields: merged}
}

// Entries returns a snapshot of everything logged so far.
func (tl *TestLogger) Entries() []Entry {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return append([]Entry(nil), *tl.entries...)
}

// Messages returns the messages logged at level, in order.
func (tl *TestLogger) Messages(level string) []string {
	var out []string
	for _, e := range tl.Entries() {
		if e.Level == level {
			out = append(out, e.Msg)
		}
	}
	return out
}
