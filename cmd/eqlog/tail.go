package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eqlog/eqlog-go/pkg/eqlog"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

var (
	// tail flags
	format     string
	eventTypes []string
	filterExpr string
	includeRaw bool
	showZones  bool
)

// subBuffer is the channel buffer for tracker subscriptions.
const subBuffer = 64

var tailCmd = &cobra.Command{
	Use:   "tail [LOGFILE]",
	Short: "Follow a combat log and output events",
	Long: `Follow an EverQuest combat log and output combat events as lines are
appended. Lines already in the file when tail starts are skipped.

Events are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with tools like jq.

Examples:
  # Follow the newest log (auto-detect Logs directory)
  eqlog tail

  # Follow a specific file
  eqlog tail ~/EverQuest/Logs/eqlog_Tester_P1999Green.txt

  # Only spell and melee damage, human-readable
  eqlog tail --types spell,melee --format pretty

  # Outgoing crits over 500
  eqlog tail --filter 'outgoing && critical && amount > 500'

  # Pipe to jq
  eqlog tail | jq 'select(.kind == "heal")'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTail,
}

func init() {
	addOutputFlags(tailCmd)
	tailCmd.Flags().BoolVar(&showZones, "zones", false, "Also output zone changes")
	rootCmd.AddCommand(tailCmd)
}

// addOutputFlags registers the event output flags shared by tail and parse.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&format, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	cmd.Flags().StringSliceVarP(&eventTypes, "types", "t", nil,
		"Event kinds to show (comma-separated: melee,spell,heal,rune,miss)")
	cmd.Flags().StringVar(&filterExpr, "filter", "",
		"Expression over kind, actor, source, target, amount, critical, outgoing, spell, zone, category, raw")
	cmd.Flags().BoolVar(&includeRaw, "raw", false,
		"Include raw log lines in output")
}

func runTail(cmd *cobra.Command, args []string) error {
	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := validateFormat(format); err != nil {
		return err
	}
	filter, err := newEventFilter(eventTypes, filterExpr)
	if err != nil {
		return err
	}
	parser, err := buildParser(cfg.PatternFiles)
	if err != nil {
		return err
	}
	path, err := resolveLogPath(cfg, args)
	if err != nil {
		return err
	}

	// The sink runs on the tracker goroutine; hand events to the output
	// loop so a slow terminal applies backpressure instead of interleaving.
	events := make(chan event.CombatEvent, subBuffer)
	sink := eqlog.SinkFunc(func(ctx context.Context, ev event.CombatEvent) {
		if !filter.Match(ev) {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})

	opts := []eqlog.Option{
		eqlog.WithLogger(logger),
		eqlog.WithPoll(cfg.Poll),
		eqlog.WithSink(sink),
	}
	if parser != nil {
		opts = append(opts, eqlog.WithParser(parser))
	}
	tracker, err := eqlog.NewTracker(opts...)
	if err != nil {
		return err
	}
	defer tracker.Close()

	errs, unsubErrs := tracker.SubscribeErrors(subBuffer)
	defer unsubErrs()
	zones, unsubZones := tracker.SubscribeZones(subBuffer)
	defer unsubZones()

	if err := tracker.Start(ctx, path); err != nil {
		return err
	}
	logger.Info("tracking", "path", path, "session", tracker.SessionID())

	out := cmd.OutOrStdout()
	for {
		select {
		case ev := <-events:
			if err := OutputEvent(format, ev, includeRaw, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case zc, ok := <-zones:
			if !ok {
				return nil
			}
			if showZones {
				if err := OutputZone(format, zc, out); err != nil {
					return fmt.Errorf("output error: %w", err)
				}
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			warn(cmd.ErrOrStderr(), err)

		case <-ctx.Done():
			return nil
		}
	}
}
