// Package logging provides the leveled logging sink injected into every pipeline component.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is the sink the pipeline components write to.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With returns a Logger that adds args to every record.
	With(args ...any) Logger
}

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a Logger writing to out.
func New(out io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return FromSlog(slog.New(handler))
}

// FromSlog adapts an existing *slog.Logger.
func FromSlog(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return FromSlog(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

const stepRule = "============================================================"

// Step logs a numbered stage banner.
func Step(log Logger, number int, title string) {
	log.Info(stepRule)
	log.Info(fmt.Sprintf("STEP %d: %s", number, title))
	log.Info(stepRule)
}

// Success logs a completed action at info level with an outcome marker.
func Success(log Logger, msg string, args ...any) {
	log.Info(msg, append([]any{"outcome", "success"}, args...)...)
}
