package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/lmittmann/tint"

	"github.com/couchcryptid/rainfall-explorer/internal/config"
)

// NewLogger builds the service logger and sets it as the slog default.
// LOG_FORMAT=text selects a coloured console handler; anything else logs JSON.
func NewLogger(cfg *config.Config) *slog.Logger {
	if !strings.EqualFold(cfg.LogFormat, "text") {
		return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	logger := NewConsoleLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	return logger
}

// NewConsoleLogger builds a coloured human-readable logger writing to w.
func NewConsoleLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
	}))
}

// ParseLevel converts a LOG_LEVEL value to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
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
