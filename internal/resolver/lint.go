package resolver

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/buildvariant/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// WarningKind classifies a lint warning.
type WarningKind string

const (
	// KindDuplicateKey marks a key assigned more than once in one block.
	KindDuplicateKey WarningKind = "duplicate-key"
	// KindUnresolved marks a value kept as raw text because it referenced
	// an external variable that was not supplied.
	KindUnresolved WarningKind = "unresolved-reference"
	// KindConditional marks an assignment made under control flow. The
	// condition is not evaluated, so the assignment always takes part in
	// resolution.
	KindConditional WarningKind = "conditional-assignment"
)

// Warning is a single lint finding.
type Warning struct {
	Kind      WarningKind
	Scope     string
	Key       string
	Positions []config.Position
	// Value is the value that wins resolution for duplicate keys, or the
	// raw value for unresolved references.
	Value  cty.Value
	Detail string
}

func (w Warning) String() string {
	pos := make([]string, len(w.Positions))
	for i, p := range w.Positions {
		pos[i] = p.String()
	}
	return fmt.Sprintf("%s: %s %s.%s (%s)", w.Kind, w.Detail, w.Scope, w.Key, strings.Join(pos, ", "))
}

// Lint reports duplicate keys within a single block, values that stayed
// unresolved and assignments made under a condition. Duplicates across different blocks are regular overrides and
// are not reported.
func Lint(blocks []config.Block) []Warning {
	var warnings []Warning
	for _, b := range blocks {
		warnings = append(warnings, lintDuplicates(b)...)
		for _, s := range b.Settings {
			if s.Conditional {
				warnings = append(warnings, Warning{
					Kind:      KindConditional,
					Scope:     b.Scope,
					Key:       s.Key,
					Positions: []config.Position{s.Pos},
					Value:     s.Value,
					Detail:    "condition not evaluated for",
				})
			}
			if len(s.Unresolved) == 0 {
				continue
			}
			warnings = append(warnings, Warning{
				Kind:      KindUnresolved,
				Scope:     b.Scope,
				Key:       s.Key,
				Positions: []config.Position{s.Pos},
				Value:     s.Value,
				Detail:    "unknown variable " + strings.Join(s.Unresolved, ", ") + " in",
			})
		}
	}
	return warnings
}

func lintDuplicates(b config.Block) []Warning {
	var order []string
	seen := make(map[string][]config.Setting)
	for _, s := range b.Settings {
		if _, ok := seen[s.Key]; !ok {
			order = append(order, s.Key)
		}
		seen[s.Key] = append(seen[s.Key], s)
	}

	var warnings []Warning
	for _, key := range order {
		all := seen[key]
		if len(all) < 2 {
			continue
		}
		positions := make([]config.Position, len(all))
		for i, s := range all {
			positions[i] = s.Pos
		}
		warnings = append(warnings, Warning{
			Kind:      KindDuplicateKey,
			Scope:     b.Scope,
			Key:       key,
			Positions: positions,
			Value:     all[len(all)-1].Value,
			Detail:    fmt.Sprintf("assigned %d times, last wins:", len(all)),
		})
	}
	return warnings
}
