package pattern

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/eqlog/eqlog-go/internal/parser"
	"github.com/eqlog/eqlog-go/pkg/eqlog"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// Named groups read from a match.
const (
	groupSource = "source"
	groupTarget = "target"
	groupAmount = "amount"
	groupSpell  = "spell"
)

// RegexParser is an eqlog.Parser that matches lines against user-defined
// patterns. Patterns are tried in file order and the first match produces
// the event, so one line never yields more than one event.
//
// Like the built-in parser, lines without a leading "[...]" timestamp are
// not matched, and isCritical / isOutgoing are derived from the line text.
//
// RegexParser is safe for concurrent use by multiple goroutines.
type RegexParser struct {
	patterns []*compiledPattern
}

type compiledPattern struct {
	id    string
	kind  event.Kind
	regex *regexp.Regexp

	// Submatch indexes of the named groups, -1 when absent.
	source, target, amount, spell int
}

// NewRegexParser compiles every pattern in pf.
// Returns a *PatternError for invalid regex syntax or a missing amount group.
//
// Example:
//
//	pf, err := pattern.Load("patterns.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, err := pattern.NewRegexParser(pf)
func NewRegexParser(pf *PatternFile) (*RegexParser, error) {
	if pf == nil {
		return nil, fmt.Errorf("pattern file is nil")
	}

	patterns := make([]*compiledPattern, 0, len(pf.Patterns))
	for i, p := range pf.Patterns {
		kind, err := event.ParseKind(p.Kind)
		if err != nil {
			return nil, &PatternError{Index: i, ID: p.ID, Field: "kind", Message: err.Error(), Cause: err}
		}

		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
				Cause:   err,
			}
		}

		cp := &compiledPattern{
			id:     p.ID,
			kind:   kind,
			regex:  re,
			source: re.SubexpIndex(groupSource),
			target: re.SubexpIndex(groupTarget),
			amount: re.SubexpIndex(groupAmount),
			spell:  re.SubexpIndex(groupSpell),
		}
		if cp.amount < 0 && kind != event.Miss {
			return nil, &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: fmt.Sprintf("%s patterns need an (?P<amount>...) group", kind),
			}
		}
		patterns = append(patterns, cp)
	}

	return &RegexParser{patterns: patterns}, nil
}

// NewRegexParserFromFile loads a pattern file and creates a RegexParser in one step.
func NewRegexParserFromFile(path string) (*RegexParser, error) {
	pf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRegexParser(pf)
}

// Len returns the number of compiled patterns.
func (p *RegexParser) Len() int {
	return len(p.patterns)
}

// ParseLine implements the eqlog.Parser interface.
func (p *RegexParser) ParseLine(_ context.Context, pc eqlog.ParseContext, line string) (eqlog.ParseResult, error) {
	line = strings.TrimRight(line, "\r")

	now := pc.Now
	if now.IsZero() {
		now = time.Now()
	}
	ts, ok := parser.ExtractTimestamp(line, now)
	if !ok {
		return eqlog.ParseResult{}, nil
	}

	for _, cp := range p.patterns {
		m := cp.regex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		ev := event.CombatEvent{
			Timestamp:  ts,
			Source:     group(m, cp.source),
			Target:     group(m, cp.target),
			Kind:       cp.kind,
			IsCritical: parser.IsCritical(line),
			SpellName:  group(m, cp.spell),
			Zone:       pc.Zone,
			IsOutgoing: parser.IsOutgoing(line),
			RawLine:    line,
		}
		if cp.kind != event.Miss {
			amount, err := strconv.Atoi(group(m, cp.amount))
			if err != nil {
				return eqlog.ParseResult{}, &eqlog.ParseError{
					Line: line,
					Err:  fmt.Errorf("pattern %q: invalid amount: %w", cp.id, err),
				}
			}
			ev.Amount = amount
		}

		return eqlog.ParseResult{Events: []event.CombatEvent{ev}, Matched: true}, nil
	}

	return eqlog.ParseResult{}, nil
}

func group(m []string, idx int) string {
	if idx < 0 || idx >= len(m) {
		return ""
	}
	return strings.TrimSpace(m[idx])
}

var _ eqlog.Parser = (*RegexParser)(nil)
