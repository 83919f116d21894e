package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/eqlog/eqlog-go/internal/config"
)

// newLogger builds the diagnostic logger. Without a log file it writes text
// to stderr, and only when verbose is set, so normal output stays clean.
// The returned cleanup closes the rotating file.
func newLogger(c *config.Config, verbose bool, stderr io.Writer) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: c.Level()}

	if c.LogFile == "" {
		if !verbose {
			return slog.New(slog.DiscardHandler), func() {}, nil
		}
		return slog.New(slog.NewTextHandler(stderr, opts)), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
		return nil, func() {}, fmt.Errorf("create log directory: %w", err)
	}
	lj := &lumberjack.Logger{
		Filename:   c.LogFile,
		MaxSize:    c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAgeDays,
		Compress:   c.LogCompress,
	}
	return slog.New(slog.NewJSONHandler(lj, opts)), func() { _ = lj.Close() }, nil
}
