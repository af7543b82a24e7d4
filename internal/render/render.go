// Package render writes resolved configurations and lint warnings as JSON,
// YAML or plain text.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/specialistvlad/buildvariant/internal/resolver"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q: must be 'json', 'yaml' or 'text'", s)
}

// Result is everything a single resolution produced. Either Scopes or
// Settings is set.
type Result struct {
	Variant  []string
	Scopes   map[string]resolver.EffectiveConfig
	Settings resolver.EffectiveConfig
	Warnings []resolver.Warning
}

type warningDoc struct {
	Kind      string   `json:"kind" yaml:"kind"`
	Scope     string   `json:"scope" yaml:"scope"`
	Key       string   `json:"key" yaml:"key"`
	Positions []string `json:"positions" yaml:"positions"`
	Message   string   `json:"message" yaml:"message"`
}

type document struct {
	Variant  []string                  `json:"variant,omitempty" yaml:"variant,omitempty"`
	Scopes   map[string]map[string]any `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	Settings map[string]any            `json:"settings,omitempty" yaml:"settings,omitempty"`
	Warnings []warningDoc              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Write renders r to w in the given format.
func Write(w io.Writer, f Format, r Result) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newDocument(r, jsonValue))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(r, Native)); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return writeText(w, r)
	}
	return fmt.Errorf("unknown output format %q", f)
}

func newDocument(r Result, conv func(cty.Value) any) document {
	doc := document{Variant: r.Variant}
	if r.Scopes != nil {
		doc.Scopes = make(map[string]map[string]any, len(r.Scopes))
		for scope, eff := range r.Scopes {
			doc.Scopes[scope] = settingsMap(eff, conv)
		}
	}
	if r.Settings != nil {
		doc.Settings = settingsMap(r.Settings, conv)
	}
	for _, w := range r.Warnings {
		pos := make([]string, len(w.Positions))
		for i, p := range w.Positions {
			pos[i] = p.String()
		}
		doc.Warnings = append(doc.Warnings, warningDoc{
			Kind:      string(w.Kind),
			Scope:     w.Scope,
			Key:       w.Key,
			Positions: pos,
			Message:   w.String(),
		})
	}
	return doc
}

func settingsMap(eff resolver.EffectiveConfig, conv func(cty.Value) any) map[string]any {
	m := make(map[string]any, len(eff))
	for key, s := range eff {
		m[key] = conv(s.Value)
	}
	return m
}

func jsonValue(v cty.Value) any {
	if v.IsNull() || !v.IsWhollyKnown() {
		return nil
	}
	return ctyjson.SimpleJSONValue{Value: v}
}

// Native converts a cty value into plain Go values: string, int64, float64,
// bool, []any and map[string]any. Null and unknown values become nil.
func Native(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case ty == cty.Bool:
		return v.True()
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, Native(ev))
		}
		return out
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for k, ev := range v.AsValueMap() {
			out[k] = Native(ev)
		}
		return out
	}
	return v.GoString()
}

// Text renders a single value for the text format. Raw values are printed
// as their source text.
func Text(v cty.Value, raw bool) string {
	if raw && v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
		return v.AsString()
	}
	switch n := Native(v).(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(n)
	case []any, map[string]any:
		b, err := json.Marshal(n)
		if err != nil {
			return fmt.Sprint(n)
		}
		return string(b)
	default:
		return fmt.Sprint(n)
	}
}

func writeText(w io.Writer, r Result) error {
	var b strings.Builder
	if len(r.Variant) > 0 {
		fmt.Fprintf(&b, "# variant: %s\n", strings.Join(r.Variant, " -> "))
	}
	if r.Scopes != nil {
		scopes := make([]string, 0, len(r.Scopes))
		for s := range r.Scopes {
			scopes = append(scopes, s)
		}
		sort.Strings(scopes)
		for _, scope := range scopes {
			eff := r.Scopes[scope]
			for _, key := range eff.Keys() {
				s := eff[key]
				fmt.Fprintf(&b, "%s %s = %s\n", scopeLabel(scope), key, Text(s.Value, s.Raw))
			}
		}
	}
	if r.Settings != nil {
		for _, key := range r.Settings.Keys() {
			s := r.Settings[key]
			fmt.Fprintf(&b, "%s = %s\n", key, Text(s.Value, s.Raw))
		}
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warn.String())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "<root>"
	}
	return "[" + scope + "]"
}
