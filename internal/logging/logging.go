// Package logging sets up the slog based loggers used across wastenet-go.
// The default logger emits structured JSON to stdout; a human-readable text
// logger writes to stderr. Per-service file loggers rotate via lumberjack.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

func newHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{Level: level}
}

// Init initializes the logging system with structured and human-readable
// loggers and installs the structured logger as the slog default.
func Init() {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, newHandlerOptions(slog.LevelDebug)))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, newHandlerOptions(slog.LevelInfo)))
	slog.SetDefault(structuredLogger)
}

// SetOutput redirects logger output, primarily for tests.
func SetOutput(structuredOutput, humanReadableOutput io.Writer) {
	structuredLogger = slog.New(slog.NewJSONHandler(structuredOutput, newHandlerOptions(slog.LevelDebug)))
	humanReadableLogger = slog.New(slog.NewTextHandler(humanReadableOutput, newHandlerOptions(slog.LevelInfo)))
	slog.SetDefault(structuredLogger)
}

// AddFileOutput tees the structured logger into a rotating log file in
// addition to stdout. It returns a close function for the file writer.
func AddFileOutput(filePath string) (func() error, error) {
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	structuredLogger = slog.New(slog.NewJSONHandler(io.MultiWriter(os.Stdout, logWriter), newHandlerOptions(slog.LevelDebug)))
	slog.SetDefault(structuredLogger)

	return logWriter.Close, nil
}

// HumanReadable returns the globally configured human-readable logger.
func HumanReadable() *slog.Logger {
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute
// added, using the global structured logger as the base.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return nil
	}
	return structuredLogger.With("service", serviceName)
}

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// NewFileLogger creates a slog.Logger writing JSON logs to the given file
// with rotation. It returns the logger, a close function for the underlying
// writer, and an error if directory setup fails.
func NewFileLogger(filePath, serviceName string, level slog.Level) (*slog.Logger, func() error, error) {
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	logger := slog.New(slog.NewJSONHandler(logWriter, newHandlerOptions(level))).With("service", serviceName)

	return logger, logWriter.Close, nil
}
