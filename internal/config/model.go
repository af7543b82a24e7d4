package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Position locates a setting in its source file.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Setting is a single key/value assignment as it appeared in the source.
type Setting struct {
	Key   string
	Value cty.Value
	Scope string
	// Index is the declaration order of the setting across the whole model.
	Index int
	Pos   Position
	// Raw is set when the value could not be evaluated and holds the
	// unmodified source text instead.
	Raw bool
	// Unresolved lists the external variable roots the raw value referenced.
	Unresolved []string
	// Conditional is set when the assignment sits under control flow such as
	// `if (...) { }`. It is still resolved as if it always ran.
	Conditional bool
}

// Block is an ordered run of settings that share one scope, e.g. a single
// `defaultConfig { ... }` block.
type Block struct {
	Scope    string
	Settings []Setting
}

// Model is the ordered result of loading one or more build descriptions.
type Model struct {
	Blocks []Block
}

// Append adds a block to the model, assigning global declaration indexes to
// its settings. Empty blocks are dropped.
func (m *Model) Append(b Block) {
	if len(b.Settings) == 0 {
		return
	}
	next := m.SettingCount()
	settings := make([]Setting, len(b.Settings))
	copy(settings, b.Settings)
	for i := range settings {
		settings[i].Index = next + i
		settings[i].Scope = b.Scope
	}
	m.Blocks = append(m.Blocks, Block{Scope: b.Scope, Settings: settings})
}

// Merge appends all blocks of other to m, keeping their order.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	for _, b := range other.Blocks {
		m.Append(b)
	}
}

// SettingCount returns the number of settings across all blocks.
func (m *Model) SettingCount() int {
	n := 0
	for _, b := range m.Blocks {
		n += len(b.Settings)
	}
	return n
}

// Scopes returns the distinct block scopes in first-seen order.
func (m *Model) Scopes() []string {
	seen := make(map[string]struct{})
	var scopes []string
	for _, b := range m.Blocks {
		if _, ok := seen[b.Scope]; ok {
			continue
		}
		seen[b.Scope] = struct{}{}
		scopes = append(scopes, b.Scope)
	}
	return scopes
}
