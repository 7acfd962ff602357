package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// L is the shared sugared logger. It is a no-op until Init is called, so
// library packages can log unconditionally and tests stay quiet.
var L = zap.NewNop().Sugar()

// Config controls logger setup.
type Config struct {
	Level      string // debug, info, warn, error (default info)
	File       string // optional log file; empty logs to stderr only
	MaxSizeMB  int    // max size of a log file before rotation
	MaxBackups int    // rotated files to keep
	MaxAgeDays int    // days to keep rotated files
}

// Init installs the real logger according to cfg, replacing the no-op default.
func Init(cfg Config) error {
	var level zapcore.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "info", "":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return fmt.Errorf("unknown log level %q", cfg.Level)
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level),
	}
	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 16
		}
		maxBackups := cfg.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		maxAge := cfg.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 7
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotating), level))
	}

	L = zap.New(zapcore.NewTee(cores...)).Sugar()
	return nil
}

// Sync flushes buffered log entries. Call before exit.
func Sync() {
	_ = L.Sync()
}
