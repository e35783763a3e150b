// Package tslog provides the structured logging used throughout the
// connection, packet, command and book layers. It wraps log/slog with a
// small set of conveniences tailored to the protocol's components.
//
// Unlike a typical slog wrapper there is no process-wide default logger:
// every subsystem receives its *Logger explicitly from the caller, because
// a single process may run many independent connections concurrently and a
// global sink would interleave them.
package tslog

import (
	"log/slog"
	"os"
)

// Component names the protocol subsystem a log line originates from,
// matching the granularity of the LogLevel option in client.Options.
type Component string

const (
	ComponentUDP        Component = "udp"
	ComponentPacket     Component = "packet"
	ComponentCommand    Component = "command"
	ComponentHandshake  Component = "handshake"
	ComponentBook       Component = "book"
	ComponentConnection Component = "connection"
)

// Logger wraps slog.Logger with a component tag.
type Logger struct {
	inner *slog.Logger
}

// New creates a Logger that writes text-formatted lines to os.Stderr at the
// given level.
func New(level slog.Level) *Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler, used
// by tests to capture log output.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return NewWithHandler(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Component returns a child logger tagged with the given subsystem.
func (l *Logger) Component(c Component) *Logger {
	return &Logger{inner: l.inner.With("component", string(c))}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// Enabled reports whether a Component should log at the given option level,
// mapping the connect option's {off,command,packet,udp} scale onto the
// component set. "off" disables everything; each named level additionally
// enables its own component's debug output.
func Enabled(optLevel string, c Component) bool {
	switch optLevel {
	case "off", "":
		return false
	case "command":
		return c == ComponentCommand || c == ComponentHandshake || c == ComponentConnection || c == ComponentBook
	case "packet":
		return c != ComponentUDP
	case "udp":
		return true
	default:
		return false
	}
}
