// Package logging provides structured logging via log/slog, duplicated to
// stdout and to a rotated file, matching the run's matcher.log artifact.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger     *slog.Logger
	loggerMu   sync.RWMutex
	level      = new(slog.LevelVar)
	initOnce   sync.Once
	fileCloser io.Closer
)

// defaultReplaceAttr formats timestamps to second precision, matching the
// teacher's log formatting conventions.
func defaultReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02T15:04:05Z07:00"))
	}
	return a
}

// Init wires the logger to write every record as human-readable text to
// matcher.log (rotated via lumberjack) and, identically, to stdout.
func Init(logPath string) error {
	var initErr error
	initOnce.Do(func() {
		level.Set(slog.LevelInfo)

		dir := filepath.Dir(logPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				initErr = fmt.Errorf("create log directory %s: %w", dir, err)
				return
			}
		}

		lj := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   false,
		}
		fileCloser = lj

		writer := io.MultiWriter(lj, os.Stdout)
		handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: defaultReplaceAttr,
		})

		loggerMu.Lock()
		logger = slog.New(handler)
		loggerMu.Unlock()
		slog.SetDefault(logger)
	})
	return initErr
}

// SetLevel adjusts the shared logging level.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Close releases the rotated log file handle.
func Close() error {
	loggerMu.RLock()
	c := fileCloser
	loggerMu.RUnlock()
	if c == nil {
		return nil
	}
	return c.Close()
}

// L returns the global logger, falling back to slog.Default() before Init.
func L() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }
