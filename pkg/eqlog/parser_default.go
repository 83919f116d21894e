package eqlog

import (
	"context"

	"github.com/eqlog/eqlog-go/internal/parser"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// DefaultParser recognizes the built-in melee, spell, heal, miss and zone lines.
type DefaultParser struct{}

// ParseLine implements the Parser interface.
func (DefaultParser) ParseLine(_ context.Context, pc ParseContext, line string) (ParseResult, error) {
	res, err := parser.Parse(line, parser.Context{Now: pc.Now, Zone: pc.Zone})
	if err != nil {
		return ParseResult{}, &ParseError{Line: line, Err: err}
	}
	switch {
	case res.ZoneChanged:
		return ParseResult{ZoneChanged: true, Zone: res.Zone, Timestamp: res.Timestamp, Matched: true}, nil
	case res.Event != nil:
		return ParseResult{Events: []event.CombatEvent{*res.Event}, Matched: true}, nil
	default:
		return ParseResult{}, nil
	}
}

var _ Parser = DefaultParser{}
