package auth

import (
	"fmt"
	"log/slog"
)

// SlogLogger adapts a slog.Logger to the Logger interface. The Logger
// surface is printf style, so arguments are rendered into the message
// before they reach slog.
type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(format string, args ...any) {
	s.l.Debug(render(format, args...))
}

func (s *SlogLogger) Info(format string, args ...any) {
	s.l.Info(render(format, args...))
}

func (s *SlogLogger) Warn(format string, args ...any) {
	s.l.Warn(render(format, args...))
}

func (s *SlogLogger) Error(format string, args ...any) {
	s.l.Error(render(format, args...))
}

// With returns a logger carrying additional structured attributes
func (s *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{l: s.l.With(args...)}
}

func render(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

var _ Logger = (*SlogLogger)(nil)
