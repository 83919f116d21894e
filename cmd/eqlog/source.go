package main

import (
	"github.com/eqlog/eqlog-go/internal/config"
	"github.com/eqlog/eqlog-go/internal/logfinder"
)

// resolveLogPath picks the log to follow: an explicit path wins, otherwise
// the newest eqlog_*.txt in the configured or detected Logs directory.
func resolveLogPath(c *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if c.LogPath != "" {
		return c.LogPath, nil
	}
	dir, err := logfinder.FindLogDir(c.LogDir)
	if err != nil {
		return "", err
	}
	return logfinder.FindLatestLogFile(dir)
}
