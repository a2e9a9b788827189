package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup initializes the global slog logger to output JSON to the provided writer.
// It adds a permanent "service" field to all log entries. The level comes from
// LOG_LEVEL (debug, info, warn, error) and defaults to info.
func Setup(w io.Writer, serviceName string) {
	opts := &slog.HandlerOptions{
		Level: levelFromEnv(),
	}

	handler := slog.NewJSONHandler(w, opts).
		WithAttrs([]slog.Attr{
			slog.String("service", serviceName),
		})

	slog.SetDefault(slog.New(handler))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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

// Info logs an info-level message using the configured default logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warn-level message using the configured default logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error-level message using the configured default logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}
