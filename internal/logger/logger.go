// Package logger builds the process logger: a zap core exposed through log/slog
// so call sites stay on the standard slog API.
package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a slog.Logger backed by zap. format "json" (or env "prod")
// selects the production JSON encoder; anything else uses the console encoder.
func New(env, format, level string) (*slog.Logger, func(), error) {
	var cfg zap.Config
	if format == FormatJSON || env == "prod" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	z, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	l := slog.New(zapslog.NewHandler(z.Core()))
	return l, func() { _ = z.Sync() }, nil
}

// Install builds the logger and makes it the slog default.
func Install(env, format, level string) (func(), error) {
	l, sync, err := New(env, format, level)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return sync, nil
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
