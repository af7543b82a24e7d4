package resolver

import (
	"sort"

	"github.com/specialistvlad/buildvariant/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// EffectiveConfig maps every key to the setting whose value survived
// resolution. The setting is kept to preserve provenance.
type EffectiveConfig map[string]config.Setting

// Value returns the effective value of key.
func (e EffectiveConfig) Value(key string) (cty.Value, bool) {
	s, ok := e[key]
	if !ok {
		return cty.NilVal, false
	}
	return s.Value, true
}

// Keys returns the keys in lexical order.
func (e EffectiveConfig) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether both configurations hold the same keys with equal
// values. Provenance is ignored.
func (e EffectiveConfig) Equal(other EffectiveConfig) bool {
	if len(e) != len(other) {
		return false
	}
	for k, s := range e {
		o, ok := other[k]
		if !ok || !s.Value.RawEquals(o.Value) {
			return false
		}
	}
	return true
}

// Resolve folds all blocks, in order, into a single effective configuration.
func Resolve(blocks []config.Block) EffectiveConfig {
	eff := make(EffectiveConfig)
	for _, b := range blocks {
		fold(eff, b)
	}
	return eff
}

// ResolveScoped resolves every scope independently. Blocks that share a
// scope are folded in the order they appear.
func ResolveScoped(blocks []config.Block) map[string]EffectiveConfig {
	out := make(map[string]EffectiveConfig)
	for _, b := range blocks {
		eff, ok := out[b.Scope]
		if !ok {
			eff = make(EffectiveConfig)
			out[b.Scope] = eff
		}
		fold(eff, b)
	}
	return out
}

// ResolveVariant resolves a build variant described by a chain of scopes,
// e.g. "android.defaultConfig" followed by "android.buildTypes.release".
// Scopes later in the chain override earlier ones; scopes not named in the
// chain are ignored.
func ResolveVariant(blocks []config.Block, chain ...string) EffectiveConfig {
	eff := make(EffectiveConfig)
	for _, scope := range chain {
		for _, b := range blocks {
			if b.Scope == scope {
				fold(eff, b)
			}
		}
	}
	return eff
}

func fold(eff EffectiveConfig, b config.Block) {
	for _, s := range b.Settings {
		eff[s.Key] = s
	}
}
