package decl

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// evaluation is the outcome of evaluating a right-hand side.
type evaluation struct {
	value      cty.Value
	raw        bool
	unresolved []string
}

func rawValue(src string) evaluation {
	return evaluation{value: cty.StringVal(src), raw: true}
}

// evaluate parses src as an HCL expression and evaluates it against the
// injected variables. Sources that are not valid HCL, that reference a
// variable that was not injected, or that fail to evaluate are returned as
// raw text. Missing references below an external root are reported.
func (l *Loader) evaluate(src, filename string, line int) evaluation {
	expr, diags := hclsyntax.ParseExpression([]byte(src), filename, hcl.Pos{Line: line, Column: 1})
	if diags.HasErrors() {
		return rawValue(src)
	}

	traversals := expr.Variables()
	complete := true
	for _, tr := range traversals {
		if !l.vars.Has(tr.RootName()) {
			complete = false
		}
	}
	if complete {
		val, diags := expr.Value(l.vars.EvalContext())
		if !diags.HasErrors() && val.IsWhollyKnown() {
			return evaluation{value: val}
		}
	}

	ev := rawValue(src)
	seen := make(map[string]struct{})
	for _, tr := range traversals {
		if _, external := l.externalRoots[tr.RootName()]; !external {
			continue
		}
		name := traversalName(tr)
		if _, ok := l.vars.Lookup(name); ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		ev.unresolved = append(ev.unresolved, name)
	}
	return ev
}

// traversalName renders the attribute path of a traversal, e.g.
// `flutter.targetSdkVersion`. Index steps end the name.
func traversalName(tr hcl.Traversal) string {
	parts := []string{tr.RootName()}
	for _, step := range tr[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			break
		}
		parts = append(parts, attr.Name)
	}
	return strings.Join(parts, ".")
}
