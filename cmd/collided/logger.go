package main

import (
	"github.com/l1jgo/collision/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loggerConfig turns [logging] into a zap config: JSON for production, a
// compact colored console otherwise. Unknown levels fall back to info.
func loggerConfig(cfg config.LoggingConfig) zap.Config {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zc.EncoderConfig.ConsoleSeparator = "  "
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableCaller = !cfg.Caller
	zc.DisableStacktrace = !cfg.Stacktrace
	if len(cfg.Outputs) > 0 {
		zc.OutputPaths = cfg.Outputs
	}
	return zc
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	return loggerConfig(cfg).Build()
}
