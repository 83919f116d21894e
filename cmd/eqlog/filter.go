package main

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// filterEnv is the set of names a --filter expression can reference.
type filterEnv struct {
	Kind     string `expr:"kind"`
	Actor    string `expr:"actor"`
	Source   string `expr:"source"`
	Target   string `expr:"target"`
	Amount   int    `expr:"amount"`
	Critical bool   `expr:"critical"`
	Outgoing bool   `expr:"outgoing"`
	Spell    string `expr:"spell"`
	Zone     string `expr:"zone"`
	Category string `expr:"category"`
	Raw      string `expr:"raw"`
}

func newFilterEnv(ev event.CombatEvent) filterEnv {
	return filterEnv{
		Kind:     string(ev.Kind),
		Actor:    ev.ActorKey(),
		Source:   ev.Source,
		Target:   ev.Target,
		Amount:   ev.Amount,
		Critical: ev.IsCritical,
		Outgoing: ev.IsOutgoing,
		Spell:    ev.SpellName,
		Zone:     ev.Zone,
		Category: string(ev.Category()),
		Raw:      ev.RawLine,
	}
}

// eventFilter decides which events a command prints.
// The zero value accepts everything.
type eventFilter struct {
	kinds   map[event.Kind]bool
	program *vm.Program
}

// newEventFilter validates --types and compiles --filter.
func newEventFilter(kinds []string, expression string) (*eventFilter, error) {
	f := &eventFilter{}

	if len(kinds) > 0 {
		f.kinds = make(map[event.Kind]bool, len(kinds))
		for _, s := range kinds {
			k, err := event.ParseKind(s)
			if err != nil {
				return nil, fmt.Errorf("invalid --types: %w (valid: %s)", err, kindNames())
			}
			f.kinds[k] = true
		}
	}

	if strings.TrimSpace(expression) != "" {
		program, err := expr.Compile(expression, expr.Env(filterEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid --filter: %w", err)
		}
		f.program = program
	}
	return f, nil
}

// Match reports whether ev passes both the kind set and the expression.
// An expression that fails at run time rejects the event.
func (f *eventFilter) Match(ev event.CombatEvent) bool {
	if f.kinds != nil && !f.kinds[ev.Kind] {
		return false
	}
	if f.program == nil {
		return true
	}
	out, err := expr.Run(f.program, newFilterEnv(ev))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func kindNames() string {
	names := make([]string, len(event.Kinds))
	for i, k := range event.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}
