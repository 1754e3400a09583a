package internal

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger returns the logger for a command run. Logs go to stderr; stdout
// only carries command output.
func newLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if logFormat == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          logFormat,
		EncoderConfig:     encoderConfig,
		DisableStacktrace: !verbose,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if config.Encoding != "json" {
		config.Encoding = "console"
	}
	return config.Build()
}
