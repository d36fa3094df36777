package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger; honors env vars LOG_LEVEL (debug|info|warn|error) and
// LOG_JSON (true|false). Non-dev environments default to JSON output.
func New(env string) *zap.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	encoding := "json"
	if env == "dev" {
		encoding = "console"
	}
	if v := os.Getenv("LOG_JSON"); v == "false" {
		encoding = "console"
	} else if v == "true" {
		encoding = "json"
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := cfg.Build()
	if err != nil {
		// A broken static config is a programming error, not a runtime condition.
		panic(err)
	}
	return logger
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
