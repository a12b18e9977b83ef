// Package ui prints user-facing diagnostics to stderr. Everything here
// stays off stdout, which carries only the credential export lines.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

var writer io.Writer = os.Stderr

// SetWriter overrides the output writer (for testing). Passing nil
// restores os.Stderr.
func SetWriter(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	writer = w
}

// --- Color detection ---

var stderrColor = detectColor(os.Stderr)

func detectColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColorEnabled overrides color detection (for testing).
func SetColorEnabled(enabled bool) {
	stderrColor = enabled
}

func ansi(code, s string) string {
	if !stderrColor {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// --- Warn / Error / Info (stderr, colored prefix) ---

// Warn prints a user-facing warning to stderr.
func Warn(msg string) {
	fmt.Fprintf(writer, "%s %s\n", ansi("33", "Warning:"), msg)
}

// Warnf prints a formatted user-facing warning to stderr.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

// Error prints a user-facing error to stderr.
func Error(msg string) {
	fmt.Fprintf(writer, "%s %s\n", ansi("31", "Error:"), msg)
}

// Errorf prints a formatted user-facing error to stderr.
func Errorf(format string, args ...any) {
	Error(fmt.Sprintf(format, args...))
}

// Info prints a user-facing message to stderr with no prefix.
func Info(msg string) {
	fmt.Fprintf(writer, "%s\n", msg)
}

// Infof prints a formatted user-facing message to stderr with no prefix.
func Infof(format string, args ...any) {
	fmt.Fprintf(writer, format+"\n", args...)
}
