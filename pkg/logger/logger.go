package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"draftmail/pkg/config"
	"draftmail/pkg/trace"
)

// Log is the process-wide logger set by NewLogger.
var Log *zap.Logger

// NewLogger builds a zap logger. The "local" environment gets a console encoder,
// everything else the production JSON encoder.
func NewLogger(env string, cfg config.LogConfig) *zap.Logger {
	zc := zap.NewProductionConfig()
	if env == "local" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	l, err := zc.Build()
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

func parseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// WithTrace returns logger annotated with the trace_id carried by ctx, if any.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}

// DefaultConfig is used before service config has been loaded.
func DefaultConfig() config.LogConfig {
	return config.LogConfig{Level: "info"}
}
