package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a structured logger that writes to a file or stderr.
type Logger struct {
	file   *os.File
	logger *slog.Logger
}

// NewLogger creates a logger writing to filePath, or to stderr when filePath is empty.
func NewLogger(filePath, level string) (*Logger, error) {
	var (
		w    io.Writer = os.Stderr
		file *os.File
	)
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file, w = f, f
	}
	return NewLoggerTo(w, level, file), nil
}

// NewLoggerTo builds a logger on an arbitrary writer. closer may be nil.
func NewLoggerTo(w io.Writer, level string, closer *os.File) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{file: closer, logger: slog.New(h)}
}

// ParseLevel maps debug|info|warn|error to a slog level. Anything else is info.
func ParseLevel(level string) slog.Leveler {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	lv := new(slog.LevelVar)
	lv.Set(lvl)
	return lv
}

func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

func (l *Logger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

func (l *Logger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// With returns a logger that adds args to every record. It shares the file.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{file: l.file, logger: l.logger.With(args...)}
}

// Slog exposes the underlying logger for packages that take a *slog.Logger.
func (l *Logger) Slog() *slog.Logger { return l.logger }

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
