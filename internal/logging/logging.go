// Package logging carries a leveled, context-aware logger through every layer.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is the logging interface used across layers.
type Logger interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Debugf(ctx context.Context, format string, args ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Error(ctx context.Context, msg string, kv ...any)
	Errorf(ctx context.Context, format string, args ...any)
	With(kv ...any) Logger
}

type contextKey struct{}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or the process default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok && l != nil {
		return l
	}
	return stderrDefault()
}

// NewWithWriter returns a Logger writing records of at least level to w.
// Format is "human" (the default), "text" or "json".
func NewWithWriter(format string, level slog.Leveler, w io.Writer) (Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "human":
		if w == os.Stderr {
			slog.SetLogLoggerLevel(level.Level())
			return stderrDefault(), nil
		}
		return &slogLogger{l: slog.New(slog.NewTextHandler(w, opts))}, nil
	case "text":
		return &slogLogger{l: slog.New(slog.NewTextHandler(w, opts))}, nil
	case "json":
		return &slogLogger{l: slog.New(slog.NewJSONHandler(w, opts))}, nil
	}
	return nil, fmt.Errorf("unsupported log format: %s", format)
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return &slogLogger{l: slog.New(slog.DiscardHandler)}
}

// ParseLevel converts a level name (DEBUG, INFO, WARN, ERROR) to slog.Level.
// Empty input yields INFO.
func ParseLevel(s string) (slog.Level, error) {
	var lv slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lv.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lv, nil
}

var stderrDefault = sync.OnceValue(func() *slogLogger {
	return &slogLogger{l: slog.Default()}
})

type slogLogger struct{ l *slog.Logger }

func (s *slogLogger) log(ctx context.Context, level slog.Level, msg string, kv []any) {
	s.l.Log(ctx, level, msg, kv...)
}

func (s *slogLogger) logf(ctx context.Context, level slog.Level, format string, args []any) {
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (s *slogLogger) Debug(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelDebug, msg, kv)
}
func (s *slogLogger) Debugf(ctx context.Context, format string, args ...any) {
	s.logf(ctx, slog.LevelDebug, format, args)
}
func (s *slogLogger) Info(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelInfo, msg, kv)
}
func (s *slogLogger) Infof(ctx context.Context, format string, args ...any) {
	s.logf(ctx, slog.LevelInfo, format, args)
}
func (s *slogLogger) Warn(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelWarn, msg, kv)
}
func (s *slogLogger) Warnf(ctx context.Context, format string, args ...any) {
	s.logf(ctx, slog.LevelWarn, format, args)
}
func (s *slogLogger) Error(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelError, msg, kv)
}
func (s *slogLogger) Errorf(ctx context.Context, format string, args ...any) {
	s.logf(ctx, slog.LevelError, format, args)
}

func (s *slogLogger) With(kv ...any) Logger { return &slogLogger{l: s.l.With(kv...)} }
