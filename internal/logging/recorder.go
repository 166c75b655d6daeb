package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is one record captured by a Recorder.
type Entry struct {
	Level   string
	Message string
	Args    []any
}

// Recorder is an in-memory Logger for tests.
type Recorder struct {
	mu      sync.Mutex
	entries *[]Entry
	base    []any
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{entries: &[]Entry{}}
}

func (r *Recorder) add(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := append(append([]any{}, r.base...), args...)
	*r.entries = append(*r.entries, Entry{Level: level, Message: msg, Args: all})
}

func (r *Recorder) Debug(msg string, args ...any) { r.add("DEBUG", msg, args) }
func (r *Recorder) Info(msg string, args ...any)  { r.add("INFO", msg, args) }
func (r *Recorder) Warn(msg string, args ...any)  { r.add("WARN", msg, args) }
func (r *Recorder) Error(msg string, args ...any) { r.add("ERROR", msg, args) }

// With shares the underlying entry list with the parent.
func (r *Recorder) With(args ...any) Logger {
	return &Recorder{entries: r.entries, base: append(append([]any{}, r.base...), args...)}
}

// Entries returns a copy of the captured records.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), (*r.entries)...)
}

// Messages returns the captured records at level formatted as "LEVEL message".
func (r *Recorder) Messages(level string) []string {
	var out []string
	for _, e := range r.Entries() {
		if level == "" || e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any record at level has a message containing substr.
func (r *Recorder) Contains(level, substr string) bool {
	for _, m := range r.Messages(level) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func (r *Recorder) String() string {
	var sb strings.Builder
	for _, e := range r.Entries() {
		sb.WriteString(fmt.Sprintf("%s %s %v\n", e.Level, e.Message, e.Args))
	}
	return sb.String()
}
