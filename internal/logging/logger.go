// SPDX-License-Identifier: Apache-2.0

// Package logging builds the slog logger shared by the API, the runner,
// and the CLI.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the runtime logger for the given environment. Dev gets
// a text handler with source locations; prod gets JSON without them.
// LOG_LEVEL selects the level (debug/info/warn/error), defaulting to info.
func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}

	if strings.EqualFold(strings.TrimSpace(env), "prod") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	opts.AddSource = true
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
