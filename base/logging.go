package base

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logger used by all fontpipe packages. It defaults to a
// no-op logger, call SetupLogger to get output.
var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Level type
type Level int

const (
	// ErrorLevel level. Used for errors that should definitely be noted.
	ErrorLevel Level = iota
	// WarnLevel level. Non-critical entries that deserve eyes.
	WarnLevel
	// InfoLevel level. General operational entries about what's going on
	// inside the application.
	InfoLevel
	// DebugLevel level. Usually only enabled when debugging. Very verbose
	// logging.
	DebugLevel
)

// SetupLogger initializes the package logger at the given level.
func SetupLogger(level Level) {
	zl := zapcore.InfoLevel
	switch level {
	case ErrorLevel:
		zl = zapcore.ErrorLevel
	case WarnLevel:
		zl = zapcore.WarnLevel
	case InfoLevel:
		zl = zapcore.InfoLevel
	case DebugLevel:
		zl = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		Logger = zap.NewNop().Sugar()
		return
	}
	Logger = logger.Sugar()
}
