// Package logging configures slog loggers for the library and CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level to emit.
	Level slog.Level

	// JSON switches output from text to JSON records.
	JSON bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a logger from cfg.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(cfg.Output, opts))
	}
	return slog.New(slog.NewTextHandler(cfg.Output, opts))
}

// Nop returns a logger that discards everything. Constructors use it
// when no logger is injected.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
