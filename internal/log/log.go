// Package log wraps log/slog with a process-wide logger configured once
// at startup. Warnings and errors always reach stderr; debug and info
// only when verbose is on. Credential output never goes through here;
// stdout stays reserved for the export lines.
package log

import (
	"io"
	"log/slog"
	"os"
)

var logger = slog.Default()

// Options configures the logger.
type Options struct {
	// Verbose lowers the stderr threshold to debug.
	Verbose bool
	// JSONFormat switches output to JSON records.
	JSONFormat bool
	// Stderr is the output writer (defaults to os.Stderr).
	Stderr io.Writer
}

// Init initializes the global logger with the given options.
func Init(opts Options) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSONFormat {
		handler = slog.NewJSONHandler(stderr, hopts)
	} else {
		handler = slog.NewTextHandler(stderr, hopts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// With returns a logger with additional context.
func With(args ...any) *slog.Logger {
	return logger.With(args...)
}
