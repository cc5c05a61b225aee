// Package logging builds the process-wide slog logger, duplicating
// output to stdout and a size-rotated log file.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options control log destination and verbosity.
type Options struct {
	Dir        string // directory for the log file, default ./logs
	Debug      bool   // enable debug level
	MaxSizeMB  int    // rotate after this many megabytes, default 1
	MaxBackups int    // rotated files to keep, default 10
}

const logFileName = "temperature_notifier.log"

// New returns a logger writing to stdout and a rotating file. If the
// log directory cannot be created the logger falls back to stdout only.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	if opts.Dir == "" {
		opts.Dir = "./logs"
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 1
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		lg.Error("failed to create log directory, logging to stdout only", "dir", opts.Dir, "error", err)
		return lg
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, logFileName),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	mw := io.MultiWriter(rotator, os.Stdout)
	lg := slog.New(slog.NewTextHandler(mw, &slog.HandlerOptions{Level: level}))

	// align the legacy stdlib log output (used by some client libraries)
	log.SetOutput(mw)
	return lg
}
