// Package logger builds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// New creates a JSON slog logger writing to stdout.
func New(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
