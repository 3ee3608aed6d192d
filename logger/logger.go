package logger

import (
	"context"
	"log/slog"
	"os"
)

type keyType string

const LoggerKey keyType = "logger"

// MakeLogger creates a new logger instance.
func MakeLogger(enableDebug *bool) *slog.Logger {
	lvl := new(slog.LevelVar)

	if enableDebug == nil {
		lvl.Set(slog.LevelInfo)
	} else if *enableDebug {
		lvl.Set(slog.LevelDebug)
	} else {
		lvl.Set(slog.LevelInfo)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)

	return logger
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the request logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
