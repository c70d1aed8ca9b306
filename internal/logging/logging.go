// Package logging defines the small structured-logging interface the rest
// of the module depends on, so that no package reaches for a global
// logger. Production code backs it with log/slog; tests back it with a
// no-op or recording implementation.
package logging

import (
	"log/slog"
	"os"
)

// Logger is the structured logging interface every component takes at
// construction, mirroring the teacher's cursor.Logger /
// pluginLogger adapter pattern (server/cursor/client.go, server/plugin.go).
type Logger interface {
	LogDebug(msg string, keyValuePairs ...any)
	LogInfo(msg string, keyValuePairs ...any)
	LogWarn(msg string, keyValuePairs ...any)
	LogError(msg string, keyValuePairs ...any)
}

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlog wraps a *slog.Logger. If l is nil, the default slog logger is used.
func NewSlog(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

// NewDefault returns a text-handler logger writing to stderr at info level,
// used when no explicit logger is configured.
func NewDefault() Logger {
	return NewSlog(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

func (s *slogLogger) LogDebug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s *slogLogger) LogInfo(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s *slogLogger) LogWarn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s *slogLogger) LogError(msg string, kv ...any) { s.l.Error(msg, kv...) }

// Noop discards everything. Useful in tests that don't care about logging.
type Noop struct{}

func (Noop) LogDebug(string, ...any) {}
func (Noop) LogInfo(string, ...any)  {}
func (Noop) LogWarn(string, ...any)  {}
func (Noop) LogError(string, ...any) {}
