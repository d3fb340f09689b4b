// Package shared holds setup helpers used by every subcommand.
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogger configures console logging on stderr.
func SetupLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
}

// SetupFileLogger logs to a file instead of the terminal. The TUI owns
// the terminal, so its logs must go elsewhere.
func SetupFileLogger(path string, debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	var out io.Writer = io.Discard
	if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		out = f
	}

	return log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
}
