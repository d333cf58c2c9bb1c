// Package logging builds the zap logger used by every host-side layer
// of factord. The factorization engine itself never logs.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/primeworks/factord/config"
)

// New constructs a zap logger from the logging configuration. The
// returned atomic level can be adjusted at runtime for hot reload.
func New(cfg config.LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	atomicLevel := zap.NewAtomicLevelAt(level)

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	zapCfg.Level = atomicLevel

	switch cfg.Format {
	case "console":
		zapCfg.Encoding = "console"
	case "json", "":
		zapCfg.Encoding = "json"
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	switch cfg.Output {
	case "", "stderr":
		zapCfg.OutputPaths = []string{"stderr"}
	case "stdout":
		zapCfg.OutputPaths = []string{"stdout"}
	default:
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, atomicLevel, nil
}

// ParseLevel converts a config log level into a zap level.
func ParseLevel(level config.LogLevel) (zapcore.Level, error) {
	switch level {
	case config.LogLevelDebug:
		return zapcore.DebugLevel, nil
	case config.LogLevelInfo, "":
		return zapcore.InfoLevel, nil
	case config.LogLevelWarn:
		return zapcore.WarnLevel, nil
	case config.LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
