// Package logging configures the process-wide structured logger.
//
// Built on the standard library slog package. Output goes to stderr
// following Unix CLI conventions; services log key-value pairs via the
// default logger, so Setup must run before anything else logs.
package logging

import (
	"log/slog"
	"os"
)

// Config selects log verbosity and encoding.
type Config struct {
	// Level is the minimum level emitted.
	Level slog.Level

	// JSON selects JSON encoding over human-readable text.
	JSON bool
}

// Setup installs the process-wide default logger and returns it.
func Setup(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
