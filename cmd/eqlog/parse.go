package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eqlog/eqlog-go/pkg/eqlog"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

var (
	// parse flags
	summary     bool
	parseSince  string
	parseUntil  string
	stopOnError bool
)

var parseCmd = &cobra.Command{
	Use:   "parse LOGFILE",
	Short: "Parse a whole combat log",
	Long: `Parse every line of an EverQuest combat log from the start and output
the combat events, or a per-actor summary with --summary.

The summary uses the whole file as the window, measured back from the last
event, so DPS is total damage over the time each actor was active.

Examples:
  # All events as JSON Lines
  eqlog parse eqlog_Tester_P1999Green.txt

  # Damage per actor for one raid
  eqlog parse eqlog_Tester_P1999Green.txt --summary \
    --since 2024-01-15T20:00:00 --until 2024-01-15T23:00:00`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	addOutputFlags(parseCmd)
	parseCmd.Flags().BoolVarP(&summary, "summary", "s", false,
		"Print a per-actor summary instead of events")
	parseCmd.Flags().StringVar(&parseSince, "since", "",
		"Only events at or after this local time (2006-01-02T15:04:05)")
	parseCmd.Flags().StringVar(&parseUntil, "until", "",
		"Only events before this local time (2006-01-02T15:04:05)")
	parseCmd.Flags().BoolVar(&stopOnError, "stop-on-error", false,
		"Stop at the first malformed combat line")
	rootCmd.AddCommand(parseCmd)
}

// timeFlagLayout is the layout accepted by --since and --until.
const timeFlagLayout = "2006-01-02T15:04:05"

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(timeFlagLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s format: %w", name, err)
	}
	return t, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	filter, err := newEventFilter(eventTypes, filterExpr)
	if err != nil {
		return err
	}
	since, err := parseTimeFlag("since", parseSince)
	if err != nil {
		return err
	}
	until, err := parseTimeFlag("until", parseUntil)
	if err != nil {
		return err
	}
	parser, err := buildParser(cfg.PatternFiles)
	if err != nil {
		return err
	}

	opts := []eqlog.ParseOption{
		eqlog.WithParseTimeRange(since, until),
		eqlog.WithParseStopOnError(stopOnError),
	}
	if parser != nil {
		opts = append(opts, eqlog.WithParseParser(parser))
	}

	out := cmd.OutOrStdout()
	var collected []event.CombatEvent
	for ev, err := range eqlog.ParseFile(cmd.Context(), args[0], opts...) {
		if err != nil {
			var pe *eqlog.ParseError
			if stopOnError || !errors.As(err, &pe) {
				return err
			}
			warn(cmd.ErrOrStderr(), err)
			continue
		}
		if !filter.Match(ev) {
			continue
		}
		if summary {
			collected = append(collected, ev)
			continue
		}
		if err := OutputEvent(format, ev, includeRaw, out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	if !summary {
		return nil
	}
	snaps, end, err := summarize(collected)
	if err != nil {
		return err
	}
	return OutputSnapshots(format, snaps, 0, end, out)
}

// summarize aggregates events with the window spanning the whole set.
// The aggregator clock is pinned to the last event so nothing is pruned.
func summarize(events []event.CombatEvent) (eqlog.Snapshots, time.Time, error) {
	if len(events) == 0 {
		return eqlog.Snapshots{}, time.Time{}, nil
	}
	first, last := events[0].Timestamp, events[0].Timestamp
	for _, ev := range events[1:] {
		if ev.Timestamp.Before(first) {
			first = ev.Timestamp
		}
		if ev.Timestamp.After(last) {
			last = ev.Timestamp
		}
	}
	// Windows must be positive even when every event shares one timestamp.
	span := last.Sub(first) + time.Second

	agg, err := eqlog.NewAggregator(
		eqlog.WithLogger(logger),
		eqlog.WithClock(func() time.Time { return last }),
		eqlog.WithWindow(span),
		eqlog.WithRetention(span),
	)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer agg.Close()

	for _, ev := range events {
		agg.AddEvent(ev)
	}
	return agg.AllSnapshots(), last, nil
}
