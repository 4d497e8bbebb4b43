// Package logging provides a slog.Logger factory used by all repofetch apps.
//
// Log format is controlled by the LOG_FORMAT environment variable:
//
//	LOG_FORMAT=json    structured JSON, suitable for log aggregators
//	LOG_FORMAT=text    human-readable key=value pairs, for terminals
//
// Log level is controlled by LOG_LEVEL (debug, info, warn, error; default info).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format names accepted by LOG_FORMAT.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a JSON-by-default logger writing to stdout. Used by long-running apps.
func New() *slog.Logger {
	return NewWriter(os.Stdout, FormatJSON)
}

// NewWriter returns a logger writing to w. fallback is the format used when
// LOG_FORMAT is unset; the CLI passes FormatText and writes to stderr.
func NewWriter(w io.Writer, fallback string) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{Level: level}

	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = fallback
	}

	var handler slog.Handler
	switch format {
	case FormatText, "console":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
