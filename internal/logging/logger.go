// v0
// internal/logging/logger.go
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New builds the service logger. The default is a text handler on a
// MultiWriter over stdout and the log file so container logs and the on-disk
// log stay in sync. LOG_FORMAT=console switches stdout to the tint handler
// for local runs; the file always gets plain text.
func New(service string) *slog.Logger {
	logPath := os.Getenv("LOG_PATH")
	if logPath == "" {
		logPath = service + ".log"
	}
	level := slog.LevelInfo
	if os.Getenv("LOG_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l := consoleLogger(level)
		l.Error("failed to open log file", "path", logPath, "err", err)
		return l
	}

	if os.Getenv("LOG_FORMAT") == "console" {
		h := tint.NewHandler(os.Stdout, &tint.Options{Level: level, TimeFormat: time.Kitchen})
		fh := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
		l := slog.New(teeHandler{console: h, file: fh})
		l.Info("logger initialized", "file", logPath, "format", "console")
		return l
	}

	mw := io.MultiWriter(os.Stdout, f)
	l := slog.New(slog.NewTextHandler(mw, &slog.HandlerOptions{Level: level}))
	l.Info("logger initialized", "file", logPath)
	return l
}

func consoleLogger(level slog.Level) *slog.Logger {
	if os.Getenv("LOG_FORMAT") == "console" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
