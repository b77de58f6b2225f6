// Package common provides shared utilities for Vire Chart
package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger to provide a consistent interface
type Logger struct {
	zerolog.Logger
}

// parseLevel maps a config level string onto a zerolog level
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new console logger with the specified level
func NewLogger(level string) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	logger := zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewLoggerWithOutput creates a logger writing to a specific output
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	logger := zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewLoggerFromConfig creates a logger from the logging section of the config.
// Outputs may contain "console" and/or "file". A file output that cannot be
// opened is skipped with a warning on stderr.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	var writers []io.Writer

	for _, out := range cfg.Outputs {
		switch strings.ToLower(out) {
		case "console":
			if cfg.Format == "json" {
				writers = append(writers, os.Stderr)
			} else {
				writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
			}
		case "file":
			if cfg.FilePath == "" {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
				fmt.Fprintf(os.Stderr, "log directory %s: %v\n", filepath.Dir(cfg.FilePath), err)
				continue
			}
			f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "log file %s: %v\n", cfg.FilePath, err)
				continue
			}
			writers = append(writers, f)
		}
	}

	if len(writers) == 0 {
		return NewLogger(cfg.Level)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	logger := zerolog.New(io.Discard)
	return &Logger{Logger: logger}
}
