package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildLoggerFromEnv reads LOG_LEVEL and LOG_FORMAT (json|text, default json).
// verbose forces debug level regardless of LOG_LEVEL.
func buildLoggerFromEnv(w io.Writer, verbose bool) *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
