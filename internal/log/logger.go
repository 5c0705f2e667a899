// Package log configures the process-wide slog logger shared by the
// budgetbook binaries.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Field names shared by the binaries' structured logs.
const (
	FieldBackend  = "backend"
	FieldProvider = "provider"
)

// NewHandler builds a text or JSON slog handler at the given level.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a config level string to a slog.Level. Unknown strings
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the process-wide logger from config strings, installs it as
// the slog default and returns it. Logs go to stderr so rendered reports own
// stdout.
func Setup(level, format string) *slog.Logger {
	logger := slog.New(NewHandler(os.Stderr, format, ParseLevel(level)))
	slog.SetDefault(logger)
	return logger
}
