// Package event defines the combat event types produced by the EverQuest log parser.
package event

import (
	"fmt"
	"strings"
	"time"
)

// Kind classifies a combat event.
type Kind string

// Combat event kinds.
const (
	Melee Kind = "melee"
	Spell Kind = "spell"
	Heal  Kind = "heal"
	Rune  Kind = "rune"
	Miss  Kind = "miss"
)

// Kinds lists every known kind in declaration order.
var Kinds = []Kind{Melee, Spell, Heal, Rune, Miss}

// ParseKind converts a case-insensitive name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// CombatEvent is one damage, heal, rune or miss line from the log.
// Events are values and are never modified after the parser creates them.
type CombatEvent struct {
	Timestamp  time.Time `json:"ts"`
	Source     string    `json:"source,omitempty"`
	Target     string    `json:"target,omitempty"`
	Amount     int       `json:"amount"`
	Kind       Kind      `json:"kind"`
	IsCritical bool      `json:"critical,omitempty"`
	SpellName  string    `json:"spell,omitempty"`
	Zone       string    `json:"zone,omitempty"`
	IsOutgoing bool      `json:"outgoing"`
	RawLine    string    `json:"raw_line,omitempty"`
}

// ActorKey returns the ledger key an aggregator files the event under.
// Outgoing events belong to their source ("You" when unnamed), incoming
// events to their target ("Unknown" when unnamed).
func (e CombatEvent) ActorKey() string {
	if e.IsOutgoing {
		if e.Source != "" {
			return e.Source
		}
		return "You"
	}
	if e.Target != "" {
		return e.Target
	}
	return "Unknown"
}

// Category names the overlay popup slot an event is displayed in.
type Category string

// Category returns the popup category for e, e.g. "melee_crit_out".
// Misses carry no attack kind, so they share the melee miss slots.
func (e CombatEvent) Category() Category {
	dir := "in"
	if e.IsOutgoing {
		dir = "out"
	}
	if e.Kind == Miss {
		return Category("melee_miss_" + dir)
	}
	result := "hit"
	if e.IsCritical {
		result = "crit"
	}
	return Category(string(e.Kind) + "_" + result + "_" + dir)
}
