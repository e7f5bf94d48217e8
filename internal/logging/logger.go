// Package logging is the CLI's output layer: status lines to stderr, so
// stdout stays clean for secrets and scripting.
package logging

import (
	"fmt"
	"os"
)

// Logger writes leveled status messages to stderr.
type Logger struct {
	debug   bool
	noColor bool
}

// New creates a logger. With debug false, Debug calls are dropped.
func New(debug, noColor bool) *Logger {
	return &Logger{debug: debug, noColor: noColor}
}

func (l *Logger) emit(color, marker, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.noColor {
		fmt.Fprintf(os.Stderr, "%s %s\n", marker, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "\033[%sm%s\033[0m %s\n", color, marker, msg)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("32", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("33", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("31", "✗", format, args...)
}

// Debug logs a debug message if debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("36", "[DEBUG]", format, args...)
}

// Secret is a value that must never appear in log output. Formatting it
// through any of the fmt verbs yields a redaction marker.
type Secret string

func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString covers %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}
