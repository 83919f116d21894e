package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eqlog/eqlog-go/pkg/eqlog"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

func writePatternFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildParser_NoPatterns(t *testing.T) {
	p, err := buildParser(nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = buildParser([]string{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestBuildParser_CustomPatternsFirst(t *testing.T) {
	path := writePatternFile(t, `version: 1
patterns:
  - id: rune
    kind: rune
    regex: '(?P<target>\w+)''s rune absorbs (?P<amount>\d+) points of damage'
  - id: kick_as_rune
    kind: rune
    regex: '(?P<source>\w+) kicks (?P<target>\w+) for (?P<amount>\d+) points of damage'
`)

	p, err := buildParser([]string{path})
	require.NoError(t, err)
	require.NotNil(t, p)

	pc := eqlog.ParseContext{Now: time.Now()}
	ctx := context.Background()

	res, err := p.ParseLine(ctx, pc, "[Thu Jan 01 00:00:01 2024] Tester's rune absorbs 75 points of damage.")
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, event.Rune, res.Events[0].Kind)

	// Both the custom pattern and the built-in melee pattern match; the custom one wins.
	res, err = p.ParseLine(ctx, pc, "[Thu Jan 01 00:00:01 2024] Tester kicks rat for 20 points of damage.")
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, event.Rune, res.Events[0].Kind)

	// Built-in patterns still apply to everything else.
	res, err = p.ParseLine(ctx, pc, "[Thu Jan 01 00:00:01 2024] Goblin is struck by Lightning Bolt for 120 points of damage.")
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, event.Spell, res.Events[0].Kind)
}

func TestBuildParser_FileNotFound(t *testing.T) {
	_, err := buildParser([]string{"/nonexistent/patterns.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern file 1")
	assert.NotContains(t, err.Error(), "/nonexistent", "error must not leak the path")
}

func TestBuildParser_InvalidPattern(t *testing.T) {
	good := writePatternFile(t, `version: 1
patterns:
  - id: ok
    kind: miss
    regex: '(?P<source>\w+) ripostes'
`)
	bad := writePatternFile(t, `version: 1
patterns:
  - id: bad
    kind: spell
    regex: '[invalid'
`)

	_, err := buildParser([]string{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern file 2")
}
