// Package logging wires the process-wide zap logger. Development mode
// writes console output; production mode writes JSON. When a log file
// is configured it is rotated with lumberjack and tee'd with stdout.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"macrotrack/internal/config"
)

// Setup builds the global logger from config and installs it via
// zap.ReplaceGlobals. Returns the logger for deferred Sync.
func Setup(cfg config.LoggerConfig) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	if cfg.Mode == "production" {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		level,
	)

	core := consoleCore
	if cfg.File != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    64, // MB
				MaxBackups: 7,
				MaxAge:     7,
				Compress:   false,
			}),
			level,
		)
		core = zapcore.NewTee(consoleCore, fileCore)
	}

	logger := zap.New(core, zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return logger
}
