package eqlog

import (
	"context"
	"errors"
	"time"

	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// ParseContext is the state a line is parsed against.
type ParseContext struct {
	// Now replaces timestamps that fail to parse. Zero means time.Now().
	Now time.Time

	// Zone is the current zone, copied into produced events.
	Zone string
}

// ParseResult represents the result of parsing a log line.
type ParseResult struct {
	// Events contains the parsed combat events.
	Events []event.CombatEvent

	// ZoneChanged reports that the line announced a new zone.
	// Timestamp is the zone line's timestamp.
	ZoneChanged bool
	Zone        string
	Timestamp   time.Time

	// Matched indicates whether the parser recognized the input.
	// It is true for zone lines as well as combat lines.
	Matched bool
}

// Parser is the interface for log line parsers.
// Implementations include DefaultParser (built-in combat patterns)
// and pattern.RegexParser (YAML-defined patterns).
type Parser interface {
	// ParseLine parses a single log line.
	// Returns ParseResult with Matched=true if the line was recognized.
	// Returns error only for malformed matches, not for unrecognized lines.
	ParseLine(ctx context.Context, pc ParseContext, line string) (ParseResult, error)
}

// ParserFunc is an adapter to allow ordinary functions to be used as Parsers.
type ParserFunc func(ctx context.Context, pc ParseContext, line string) (ParseResult, error)

// ParseLine implements the Parser interface.
func (f ParserFunc) ParseLine(ctx context.Context, pc ParseContext, line string) (ParseResult, error) {
	return f(ctx, pc, line)
}

// ChainMode specifies how ParserChain executes parsers.
type ChainMode int

const (
	// ChainAll executes all parsers and combines results (default).
	ChainAll ChainMode = iota

	// ChainFirst stops at the first parser that matches.
	ChainFirst

	// ChainContinueOnError skips parsers that return errors and continues.
	// Errors are collected and returned together at the end.
	ChainContinueOnError
)

// ParserChain combines multiple parsers.
type ParserChain struct {
	Mode    ChainMode
	Parsers []Parser
}

// ParseLine implements the Parser interface.
// A zone change reported by any parser is kept; the first one wins.
// On context cancellation the partial result is returned with ctx.Err().
func (c *ParserChain) ParseLine(ctx context.Context, pc ParseContext, line string) (ParseResult, error) {
	var out ParseResult
	var errs []error

	for _, p := range c.Parsers {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if p == nil {
			continue
		}

		result, err := p.ParseLine(ctx, pc, line)
		if err != nil {
			if c.Mode == ChainContinueOnError {
				errs = append(errs, err)
				continue
			}
			return ParseResult{}, err
		}
		if !result.Matched {
			continue
		}

		out.Matched = true
		out.Events = append(out.Events, result.Events...)
		if result.ZoneChanged && !out.ZoneChanged {
			out.ZoneChanged = true
			out.Zone = result.Zone
			out.Timestamp = result.Timestamp
		}
		if c.Mode == ChainFirst {
			return out, nil
		}
	}

	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}
