// Package parser provides EverQuest combat log line parsing.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// Context carries the caller state a line is parsed against.
type Context struct {
	// Now replaces timestamps that fail to parse. Zero means time.Now().
	Now time.Time
	// Zone is copied into every produced event.
	Zone string
}

// Result is the outcome of parsing one line.
// At most one of Event and ZoneChanged is set.
type Result struct {
	Event *event.CombatEvent

	// ZoneChanged reports a "You have entered" line; Zone holds the new zone.
	ZoneChanged bool
	Zone        string

	// Timestamp is the line's timestamp for any recognized line.
	Timestamp time.Time
}

// Parse classifies an EverQuest log line.
//
// Returns:
//   - (Result{Event: ...}, nil): combat line
//   - (Result{ZoneChanged: true}, nil): zone change line
//   - (Result{}, nil): not a combat line
//   - (Result{}, error): combat line with an amount that does not fit an int
func Parse(line string, pc Context) (Result, error) {
	// Trim trailing CR for Windows CRLF compatibility
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return Result{}, nil
	}

	now := pc.Now
	if now.IsZero() {
		now = time.Now()
	}

	ts, ok := ExtractTimestamp(line, now)
	if !ok {
		return Result{}, nil
	}

	if match := zonePattern.FindStringSubmatch(line); match != nil {
		return Result{
			ZoneChanged: true,
			Zone:        strings.TrimSpace(match[1]),
			Timestamp:   ts,
		}, nil
	}

	ev, err := parseCombat(line, ts)
	if err != nil || ev == nil {
		return Result{}, err
	}
	ev.Zone = pc.Zone
	return Result{Event: ev, Timestamp: ts}, nil
}

// ExtractTimestamp reads the leading bracketed timestamp.
// ok is false when the bracket is missing or empty. Contents that are not a
// valid date fall back to now.
func ExtractTimestamp(line string, now time.Time) (ts time.Time, ok bool) {
	match := timestampPattern.FindStringSubmatch(line)
	if match == nil || strings.TrimSpace(match[1]) == "" {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(timestampLayout, strings.TrimSpace(match[1]), time.Local)
	if err != nil {
		return now, true
	}
	return ts, true
}

// IsCritical reports whether the line mentions a critical hit.
func IsCritical(line string) bool {
	return strings.Contains(strings.ToLower(line), "critical")
}

// IsOutgoing reports whether the local player is the acting party.
// Any actor literally named "You" is misclassified; the heuristic is kept
// as-is for compatibility with existing logs.
func IsOutgoing(line string) bool {
	return strings.Contains(line, "You ") || strings.Contains(line, "Your ")
}

func parseCombat(line string, ts time.Time) (*event.CombatEvent, error) {
	if match := meleePattern.FindStringSubmatch(line); match != nil {
		amount, err := parseAmount(match[3])
		if err != nil {
			return nil, err
		}
		return newEvent(line, ts, event.Melee, match[1], match[2], amount, ""), nil
	}

	if match := spellPattern.FindStringSubmatch(line); match != nil {
		amount, err := parseAmount(match[3])
		if err != nil {
			return nil, err
		}
		return newEvent(line, ts, event.Spell, "", match[1], amount, match[2]), nil
	}

	if match := healPattern.FindStringSubmatch(line); match != nil {
		switch {
		case match[1] != "" && match[2] != "":
			amount, err := parseAmount(match[2])
			if err != nil {
				return nil, err
			}
			return newEvent(line, ts, event.Heal, "", match[1], amount, ""), nil
		case match[3] != "" && match[4] != "" && match[5] != "":
			amount, err := parseAmount(match[5])
			if err != nil {
				return nil, err
			}
			return newEvent(line, ts, event.Heal, match[3], match[4], amount, ""), nil
		}
	}

	lower := strings.ToLower(line)
	for _, kw := range missKeywords {
		if strings.Contains(lower, kw) {
			return &event.CombatEvent{
				Timestamp:  ts,
				Kind:       event.Miss,
				IsOutgoing: IsOutgoing(line),
				RawLine:    line,
			}, nil
		}
	}

	return nil, nil
}

func newEvent(line string, ts time.Time, kind event.Kind, source, target string, amount int, spell string) *event.CombatEvent {
	return &event.CombatEvent{
		Timestamp:  ts,
		Source:     source,
		Target:     target,
		Amount:     amount,
		Kind:       kind,
		IsCritical: IsCritical(line),
		SpellName:  spell,
		IsOutgoing: IsOutgoing(line),
		RawLine:    line,
	}
}

func parseAmount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid damage amount %q: %w", s, err)
	}
	return n, nil
}
