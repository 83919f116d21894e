package eqlog

import (
	"bufio"
	"context"
	"iter"
	"time"

	"github.com/eqlog/eqlog-go/internal/safefile"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// maxScanLineBytes bounds a single line read by ParseFile.
const maxScanLineBytes = 512 * 1024

// ParseLine parses a single EverQuest log line with the built-in patterns.
//
// Return values:
//   - Matched with one event: a combat line
//   - Matched with ZoneChanged: a "You have entered" line
//   - not Matched, nil error: not a recognized line (not an error)
//   - error: the line matched but is malformed
//
// Example:
//
//	res, err := eqlog.ParseLine("[Thu Jan 01 00:00:01 2024] You hit Goblin for 75 points of damage.")
//	if err == nil && len(res.Events) == 1 {
//	    fmt.Println(res.Events[0].Amount) // 75
//	}
func ParseLine(line string) (ParseResult, error) {
	return DefaultParser{}.ParseLine(context.Background(), ParseContext{Now: time.Now()}, line)
}

// ParseFile reads a complete log file and yields its combat events in order.
// Zone lines update the zone stamped on later events but are not yielded.
// Malformed lines yield a *ParseError and parsing continues unless
// WithParseStopOnError is set. Breaking out of the loop closes the file.
func ParseFile(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[event.CombatEvent, error] {
	cfg := applyParseOptions(opts)

	return func(yield func(event.CombatEvent, error) bool) {
		f, _, err := safefile.OpenRegular(path)
		if err != nil {
			yield(event.CombatEvent{}, &TrackError{Op: TrackOpStart, Path: path, Err: err})
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxScanLineBytes)

		var zone string
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				yield(event.CombatEvent{}, err)
				return
			}

			res, err := cfg.parser.ParseLine(ctx, ParseContext{Now: cfg.now(), Zone: zone}, scanner.Text())
			if err != nil {
				if !yield(event.CombatEvent{}, err) || cfg.stopOnError {
					return
				}
				continue
			}
			if res.ZoneChanged {
				zone = res.Zone
			}
			for _, ev := range res.Events {
				if !cfg.allows(ev) {
					continue
				}
				if !yield(ev, nil) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			yield(event.CombatEvent{}, &TrackError{Op: TrackOpRead, Path: path, Err: err})
		}
	}
}

// ParseFileAll collects every event ParseFile yields.
// It stops at the first error and returns the events read so far.
func ParseFileAll(ctx context.Context, path string, opts ...ParseOption) ([]event.CombatEvent, error) {
	var events []event.CombatEvent
	for ev, err := range ParseFile(ctx, path, opts...) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}
