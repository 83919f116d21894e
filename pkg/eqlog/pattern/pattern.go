// Package pattern lets users add combat patterns to the eqlog parser with
// YAML files of regular expressions. Named groups map onto CombatEvent fields:
//
//	source  acting name
//	target  receiving name
//	amount  damage or healing (required unless kind is miss)
//	spell   spell name
package pattern

// PatternFile represents the structure of a YAML pattern file.
//
// Example YAML file:
//
//	version: 1
//	patterns:
//	  - id: rune_absorb
//	    kind: rune
//	    regex: '(?P<target>\w+)''s rune absorbs (?P<amount>\d+) points of damage'
//	  - id: dot_tick
//	    kind: spell
//	    regex: '(?P<target>\w+) has taken (?P<amount>\d+) damage from (?P<spell>.+?) by (?P<source>\w+)'
type PatternFile struct {
	// Version is the pattern file format version. Currently only version 1 is supported.
	Version int `yaml:"version"`

	// Patterns is the list of pattern definitions, tried in order.
	Patterns []Pattern `yaml:"patterns"`
}

// Pattern represents a single combat pattern definition.
type Pattern struct {
	// ID is a unique identifier for this pattern (e.g., "rune_absorb").
	// IDs must be unique within a pattern file.
	ID string `yaml:"id"`

	// Kind is the event kind produced: melee, spell, heal, rune or miss.
	Kind string `yaml:"kind"`

	// Regex is matched against the whole log line, timestamp included.
	Regex string `yaml:"regex"`
}
