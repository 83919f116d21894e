// Command eqlog follows EverQuest combat logs from the command line.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eqlog/eqlog-go/internal/config"
)

var (
	// global flags
	configPath   string
	verbose      bool
	logDir       string
	logPath      string
	poll         bool
	patternFiles []string

	// set by the root PersistentPreRunE
	cfg        *config.Config
	logger     = slog.New(slog.DiscardHandler)
	logCleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "eqlog",
	Short: "EverQuest combat log parser and DPS meter",
	Long: `eqlog follows an EverQuest combat log, parses damage, heal and miss
lines, and reports rolling per-actor DPS.

Settings are read from a YAML file (--config or EQLOG_CONFIG), then from
EQLOG_* environment variables, then from command line flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { logCleanup() },
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show warnings and debug logs")
	pf.StringVarP(&logDir, "log-dir", "d", "",
		"EverQuest Logs directory (auto-detected if not specified)")
	pf.StringVar(&logPath, "log-path", "",
		"Log file to follow (default: most recently modified eqlog_*.txt)")
	pf.BoolVar(&poll, "poll", false, "Poll the log file instead of using filesystem notifications")
	pf.StringSliceVar(&patternFiles, "patterns", nil,
		"YAML custom pattern files, tried before the built-in patterns")
}

// setup loads the configuration, applies explicit flags on top and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, loaded)
	cfg = loaded

	l, cleanup, err := newLogger(cfg, verbose, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger, logCleanup = l, cleanup
	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-dir") {
		c.LogDir = logDir
	}
	if flags.Changed("log-path") {
		c.LogPath = logPath
	}
	if flags.Changed("poll") {
		c.Poll = poll
	}
	if flags.Changed("patterns") {
		c.PatternFiles = patternFiles
	}
	if verbose {
		c.LogLevel = "debug"
	}
}

// warn prints a background error when --verbose is set.
func warn(w io.Writer, err error) {
	if verbose {
		fmt.Fprintf(w, "warning: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
