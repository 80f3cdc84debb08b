// Package logger builds the zap.Logger used throughout the service. Callers
// receive a *zap.Logger at construction time and thread it through explicitly
// -- there is no package-level global logger.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger for the given textual level ("DEBUG", "INFO",
// "WARN", "ERROR"). Unknown levels fall back to INFO.
func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		zapLevel = zapcore.DebugLevel
	case "WARN", "WARNING":
		zapLevel = zapcore.WarnLevel
	case "ERROR":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// Nop returns a logger that discards everything, used by components in tests
// that don't need log assertions.
func Nop() *zap.Logger { return zap.NewNop() }
