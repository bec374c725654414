// Package logger provides verbose logging for the troubleshoot CLI.
// When verbose mode is enabled via the --verbose flag, pipeline messages
// (ingestion, retrieval, generation) are printed to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
)

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	base              = newLogger(os.Stderr)
)

// newLogger builds a console logger that renders "[LEVEL] message" lines.
func newLogger(w io.Writer) *log.Logger {
	return &log.Logger{
		Level: log.DebugLevel,
		Writer: &log.ConsoleWriter{
			Writer:    w,
			Formatter: formatLine,
		},
	}
}

func formatLine(w io.Writer, a *log.FormatterArgs) (int, error) {
	return fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(a.Level), a.Message)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		base.Debug().Msgf(format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		base.Info().Msgf(format, args...)
	}
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		base.Warn().Msgf(format, args...)
	}
}
