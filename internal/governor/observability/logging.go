// Package observability defines logging and metrics hooks.
package observability

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger provides structured logging hooks.
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// LogrusLogger adapts a logrus logger to the Logger interface.
type LogrusLogger struct {
	l *logrus.Logger
}

// NewLogrusLogger constructs a JSON-formatted logrus logger at the given
// level. Unknown levels fall back to info.
func NewLogrusLogger(w io.Writer, level string) *LogrusLogger {
	l := logrus.New()
	if w != nil {
		l.SetOutput(w)
	}
	l.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	return &LogrusLogger{l: l}
}

// Info logs an info message.
func (s *LogrusLogger) Info(msg string, fields map[string]any) {
	if s == nil || s.l == nil {
		return
	}
	s.l.WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn logs a warning message.
func (s *LogrusLogger) Warn(msg string, fields map[string]any) {
	if s == nil || s.l == nil {
		return
	}
	s.l.WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error logs an error message.
func (s *LogrusLogger) Error(msg string, fields map[string]any) {
	if s == nil || s.l == nil {
		return
	}
	s.l.WithFields(logrus.Fields(fields)).Error(msg)
}

// NopLogger discards all log output.
type NopLogger struct{}

// Info is a no-op.
func (NopLogger) Info(msg string, fields map[string]any) {}

// Warn is a no-op.
func (NopLogger) Warn(msg string, fields map[string]any) {}

// Error is a no-op.
func (NopLogger) Error(msg string, fields map[string]any) {}
