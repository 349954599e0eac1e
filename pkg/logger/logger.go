// Package logger defines the leveled logging interface used across the SDK.
//
// The SDK never logs through a concrete backend directly; every component
// accepts a Logger so applications can plug in their own. The zero
// subpackage provides a zerolog-backed implementation.
package logger

// Logger is a leveled logger with slog-style key/value arguments.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Nop is a Logger that discards everything.
type Nop struct{}

func (Nop) Error(msg string, args ...any) {}
func (Nop) Warn(msg string, args ...any)  {}
func (Nop) Info(msg string, args ...any)  {}
func (Nop) Debug(msg string, args ...any) {}
