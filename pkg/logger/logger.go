// Package logger builds the zap loggers used across maintcore.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a textual log level.
type Level string

// Format is a textual log encoding.
type Format string

// Supported levels and formats.
const (
	DebugLevel Level = "DEBUG"
	InfoLevel  Level = "INFO"
	WarnLevel  Level = "WARN"
	ErrorLevel Level = "ERROR"

	FormatConsole Format = "CONSOLE"
	FormatJSON    Format = "JSON"
)

// Options configures a logger.
type Options struct {
	Level       Level
	Format      Format
	OutputPaths []string
}

func zapLevel(level Level) (zapcore.Level, error) {
	switch Level(strings.ToUpper(string(level))) {
	case DebugLevel:
		return zapcore.DebugLevel, nil
	case InfoLevel, "":
		return zapcore.InfoLevel, nil
	case WarnLevel:
		return zapcore.WarnLevel, nil
	case ErrorLevel:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a logger from opts. Console output is the default encoding.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	encoding := "console"
	switch Format(strings.ToUpper(string(opts.Format))) {
	case FormatJSON:
		encoding = "json"
	case FormatConsole, "":
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderCfg,
	}
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
