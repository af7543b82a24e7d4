// Package vars holds the external parameters a build description may
// reference, such as `flutter.targetSdkVersion`. They are supplied
// explicitly on the command line or in HCL variable files and exposed to
// expression evaluation as cty objects.
package vars

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type node struct {
	value    cty.Value
	children map[string]*node
}

func (n *node) isLeaf() bool { return n.children == nil }

// Set is an ordered collection of injected variables keyed by dotted name.
// Setting a name that already exists replaces it.
type Set struct {
	root map[string]*node
}

// New returns an empty variable set.
func New() *Set {
	return &Set{root: make(map[string]*node)}
}

// Set stores v under the dotted name. Object values are expanded so that
// individual attributes can later be overridden on their own.
func (s *Set) Set(name string, v cty.Value) error {
	path := strings.Split(name, ".")
	for _, p := range path {
		if p == "" {
			return fmt.Errorf("invalid variable name %q", name)
		}
	}
	s.set(path, v)
	return nil
}

func (s *Set) set(path []string, v cty.Value) {
	if v.IsKnown() && !v.IsNull() && v.Type().IsObjectType() {
		for attr, av := range v.AsValueMap() {
			s.set(append(append([]string{}, path...), attr), av)
		}
		return
	}

	level := s.root
	for _, p := range path[:len(path)-1] {
		n, ok := level[p]
		if !ok || n.isLeaf() {
			n = &node{children: make(map[string]*node)}
			level[p] = n
		}
		level = n.children
	}
	level[path[len(path)-1]] = &node{value: v}
}

// Has reports whether a root variable with the given name exists.
func (s *Set) Has(root string) bool {
	_, ok := s.root[root]
	return ok
}

// Len returns the number of root variables.
func (s *Set) Len() int {
	return len(s.root)
}

// Lookup returns the value stored under a dotted name.
func (s *Set) Lookup(name string) (cty.Value, bool) {
	path := strings.Split(name, ".")
	level := s.root
	for i, p := range path {
		n, ok := level[p]
		if !ok {
			return cty.NilVal, false
		}
		if i == len(path)-1 {
			return toValue(n), true
		}
		if n.isLeaf() {
			return cty.NilVal, false
		}
		level = n.children
	}
	return cty.NilVal, false
}

// EvalContext builds an HCL evaluation context exposing every root
// variable.
func (s *Set) EvalContext() *hcl.EvalContext {
	variables := make(map[string]cty.Value, len(s.root))
	for name, n := range s.root {
		variables[name] = toValue(n)
	}
	return &hcl.EvalContext{Variables: variables}
}

func toValue(n *node) cty.Value {
	if n.isLeaf() {
		return n.value
	}
	attrs := make(map[string]cty.Value, len(n.children))
	for name, child := range n.children {
		attrs[name] = toValue(child)
	}
	return cty.ObjectVal(attrs)
}

// ParseAssignments parses `name=value` pairs. Values that look like
// integers, floats or booleans become the matching cty type; quoted values
// and everything else are strings.
func (s *Set) ParseAssignments(assignments []string) error {
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("invalid variable assignment %q: expected name=value", a)
		}
		if err := s.Set(strings.TrimSpace(name), inferValue(strings.TrimSpace(raw))); err != nil {
			return err
		}
	}
	return nil
}

func inferValue(raw string) cty.Value {
	if unq, err := strconv.Unquote(raw); err == nil {
		return cty.StringVal(unq)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return cty.NumberIntVal(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return cty.NumberFloatVal(f)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return cty.BoolVal(b)
	}
	return cty.StringVal(raw)
}

// LoadFile reads an HCL file of attributes and stores each of them.
// Attributes are applied in source order.
func (s *Set) LoadFile(path string) error {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse variable file %s: %w", path, diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("failed to read variable file %s: %w", path, diags)
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	for _, attr := range ordered {
		val, diags := attr.Expr.Value(s.EvalContext())
		if diags.HasErrors() {
			return fmt.Errorf("invalid value for variable %q in %s: %w", attr.Name, path, diags)
		}
		if err := s.Set(attr.Name, val); err != nil {
			return err
		}
	}
	return nil
}
