package core

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// NewConsoleLogger returns a colourised human-readable logger for
// interactive use.
func NewConsoleLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}
