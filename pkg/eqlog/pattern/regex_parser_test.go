package pattern_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eqlog/eqlog-go/pkg/eqlog"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
	"github.com/eqlog/eqlog-go/pkg/eqlog/pattern"
)

var at = time.Date(2024, time.January, 1, 0, 0, 1, 0, time.Local)

func loadValid(t *testing.T) *pattern.RegexParser {
	t.Helper()
	p, err := pattern.NewRegexParserFromFile("testdata/valid.yaml")
	require.NoError(t, err)
	require.Equal(t, 3, p.Len())
	return p
}

func TestRegexParser_ParseLine(t *testing.T) {
	p := loadValid(t)
	ctx := context.Background()
	pc := eqlog.ParseContext{Now: at, Zone: "Crushbone"}

	tests := []struct {
		name string
		line string
		want *event.CombatEvent
	}{
		{
			name: "rune",
			line: "[Thu Jan 01 00:00:01 2024] Tester's rune absorbs 150 points of damage.",
			want: &event.CombatEvent{Target: "Tester", Amount: 150, Kind: event.Rune},
		},
		{
			name: "dot with spell and source",
			line: "[Thu Jan 01 00:00:01 2024] orc has taken 42 damage from Splurt by Tester.",
			want: &event.CombatEvent{Source: "Tester", Target: "orc", Amount: 42, Kind: event.Spell, SpellName: "Splurt"},
		},
		{
			name: "miss without amount",
			line: "[Thu Jan 01 00:00:01 2024] orc ripostes! You miss.",
			want: &event.CombatEvent{Source: "orc", Kind: event.Miss, IsOutgoing: true},
		},
		{
			name: "critical and outgoing",
			line: "[Thu Jan 01 00:00:01 2024] Your critical blast: orc has taken 300 damage from Ice Comet by You.",
			want: &event.CombatEvent{Source: "You", Target: "orc", Amount: 300, Kind: event.Spell, SpellName: "Ice Comet", IsCritical: true, IsOutgoing: true},
		},
		{
			name: "no match",
			line: "[Thu Jan 01 00:00:01 2024] Tester says, 'hail'",
		},
		{
			name: "no timestamp",
			line: "Tester's rune absorbs 150 points of damage.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.ParseLine(ctx, pc, tt.line)
			require.NoError(t, err)

			if tt.want == nil {
				assert.False(t, res.Matched)
				assert.Empty(t, res.Events)
				return
			}

			require.True(t, res.Matched)
			require.Len(t, res.Events, 1)
			want := *tt.want
			want.Timestamp = at
			want.Zone = "Crushbone"
			want.RawLine = tt.line
			assert.Equal(t, want, res.Events[0])
		})
	}
}

func TestRegexParser_FirstMatchWins(t *testing.T) {
	pf, err := pattern.LoadBytes([]byte(`version: 1
patterns:
  - id: specific
    kind: rune
    regex: 'absorbs (?P<amount>\d+)'
  - id: generic
    kind: heal
    regex: '(?P<amount>\d+) points'
`))
	require.NoError(t, err)
	p, err := pattern.NewRegexParser(pf)
	require.NoError(t, err)

	res, err := p.ParseLine(context.Background(), eqlog.ParseContext{Now: at}, "[Thu Jan 01 00:00:01 2024] rune absorbs 20 points")
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, event.Rune, res.Events[0].Kind)
}

func TestRegexParser_AmountOverflow(t *testing.T) {
	p := loadValid(t)

	_, err := p.ParseLine(context.Background(), eqlog.ParseContext{Now: at},
		"[Thu Jan 01 00:00:01 2024] Tester's rune absorbs 99999999999999999999999 points of damage.")
	require.Error(t, err)

	var pe *eqlog.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), "rune_absorb")
}

func TestNewRegexParser_Errors(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		_, err := pattern.NewRegexParser(nil)
		require.Error(t, err)
	})

	t.Run("invalid regex", func(t *testing.T) {
		_, err := pattern.NewRegexParserFromFile("testdata/invalid_regex.yaml")
		var patErr *pattern.PatternError
		require.True(t, errors.As(err, &patErr))
		assert.Equal(t, "broken", patErr.ID)
		assert.Contains(t, err.Error(), "invalid regular expression")
		assert.NotNil(t, errors.Unwrap(err))
	})

	t.Run("missing amount group", func(t *testing.T) {
		_, err := pattern.NewRegexParser(&pattern.PatternFile{
			Version:  1,
			Patterns: []pattern.Pattern{{ID: "no_amount", Kind: "heal", Regex: `(?P<target>\w+) is mended`}},
		})
		var patErr *pattern.PatternError
		require.True(t, errors.As(err, &patErr))
		assert.Contains(t, err.Error(), "amount")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := pattern.NewRegexParserFromFile("testdata/nonexistent.yaml")
		require.Error(t, err)
	})
}

func TestRegexParser_ChainedBeforeDefault(t *testing.T) {
	p := loadValid(t)
	chain := &eqlog.ParserChain{Mode: eqlog.ChainFirst, Parsers: []eqlog.Parser{p, eqlog.DefaultParser{}}}
	ctx := context.Background()
	pc := eqlog.ParseContext{Now: at}

	res, err := chain.ParseLine(ctx, pc, "[Thu Jan 01 00:00:01 2024] Tester's rune absorbs 10 points of damage.")
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, event.Rune, res.Events[0].Kind)

	res, err = chain.ParseLine(ctx, pc, "[Thu Jan 01 00:00:01 2024] You hit Goblin for 75 points of damage.")
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, event.Melee, res.Events[0].Kind)
}

func TestRegexParser_ConcurrentUse(t *testing.T) {
	p := loadValid(t)
	line := "[Thu Jan 01 00:00:01 2024] Tester's rune absorbs 150 points of damage."

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 100 {
				res, err := p.ParseLine(context.Background(), eqlog.ParseContext{Now: at}, line)
				if err != nil || len(res.Events) != 1 {
					t.Errorf("unexpected result %+v, %v", res, err)
					return
				}
			}
		}()
	}
	for range 8 {
		<-done
	}
}
