// Package eqlog provides a live DPS meter over EverQuest combat logs.
//
// This package allows you to:
//   - Follow a character's eqlog_*.txt file as it grows
//   - Parse melee, spell, heal and miss lines into combat events
//   - Aggregate events per actor and compute windowed DPS snapshots
//   - Receive snapshots periodically, or parse whole log files offline
//
// # Basic Usage
//
// A [Meter] wires the pieces together:
//
//	m, err := eqlog.NewMeter(eqlog.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	snaps, unsubscribe := m.Publisher().Subscribe(1)
//	defer unsubscribe()
//
//	if err := m.StartTracking(ctx, `C:\EverQuest\Logs\eqlog_Tester_server.txt`); err != nil {
//	    log.Fatal(err)
//	}
//	for s := range snaps {
//	    for actor, snap := range s {
//	        fmt.Printf("%s: %.1f dps\n", actor, snap.DPS)
//	    }
//	}
//
// [Tracker], [Aggregator] and [Publisher] can also be used on their own.
// Their signals are plain channels returned by the Subscribe methods;
// every subscriber receives every value in order.
//
// To parse a single log line:
//
//	res, err := eqlog.ParseLine(line)
//
// To read a finished log:
//
//	for ev, err := range eqlog.ParseFile(ctx, path) {
//	    ...
//	}
//
// # Custom Parsers
//
// Implement the [Parser] interface, or load YAML patterns with the
// [pattern] subpackage, and put them ahead of the built-in parser:
//
//	custom, err := pattern.NewRegexParserFromFile("patterns.yaml")
//	m, err := eqlog.NewMeter(eqlog.WithParsers(custom, eqlog.DefaultParser{}))
//
// # Known Limitations
//
// Outgoing events are detected by the literal text "You " or "Your ", and
// the melee and spell patterns capture single-word names only. A truncated
// or rotated log file is not handled.
//
// # Disclaimer
//
// This is an unofficial tool and is not affiliated with Daybreak Game Company.
package eqlog
