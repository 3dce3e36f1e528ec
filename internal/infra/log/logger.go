package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "todo-api"

// New builds the process logger. The debug level gets the human readable
// console encoder; every other level logs JSON.
func New(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("service", serviceName)), nil
}

// Must is New that falls back to info on a bad level and panics only when
// no logger can be built at all.
func Must(level string) *zap.Logger {
	l, err := New(level)
	if err == nil {
		return l
	}
	fallback, ferr := New("")
	if ferr != nil {
		panic(ferr)
	}
	fallback.Warn("bad log level, using info", zap.Error(err))
	return fallback
}
