package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/buildvariant/internal/config"
	"github.com/specialistvlad/buildvariant/internal/ctxlog"
	"github.com/specialistvlad/buildvariant/internal/fsutil"
	"github.com/specialistvlad/buildvariant/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	vars *vars.Set
}

// NewLoader creates a new HCL configuration loader evaluating expressions
// against v.
func NewLoader(v *vars.Set) *Loader {
	if v == nil {
		v = vars.New()
	}
	return &Loader{vars: v}
}

// entry is an expression waiting to be evaluated, kept with its source
// offset so that attributes and setting blocks keep their declared order.
type entry struct {
	key  string
	expr hcl.Expression
}

// Load parses every .hcl file under paths into one model. Blocks keep file
// order and then source order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, file := range hclFiles {
		fileLogger := ctxlog.FromContext(ctxlog.With(ctx, "file", file))
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if attrs, diags := root.Remain.JustAttributes(); diags.HasErrors() || len(attrs) > 0 {
			return nil, fmt.Errorf("unexpected top-level content in %s: only \"block\" is allowed", file)
		}

		for _, b := range root.Blocks {
			block, err := l.translateBlock(b)
			if err != nil {
				return nil, fmt.Errorf("in %s, block %q: %w", file, b.Scope, err)
			}
			model.Append(block)
		}
		fileLogger.Debug("Translated HCL file.", "blocks", len(root.Blocks))
	}

	logger.Debug("HCL loading complete.", "blocks", len(model.Blocks), "settings", model.SettingCount())
	return model, nil
}

func (l *Loader) translateBlock(b *blockSchema) (config.Block, error) {
	attrs, diags := b.Remain.JustAttributes()
	if diags.HasErrors() {
		return config.Block{}, diags
	}

	entries := make([]entry, 0, len(attrs)+len(b.Settings))
	for name, attr := range attrs {
		entries = append(entries, entry{key: name, expr: attr.Expr})
	}
	for _, s := range b.Settings {
		entries = append(entries, entry{key: s.Key, expr: s.Value})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].expr.Range().Start.Byte < entries[j].expr.Range().Start.Byte
	})

	evalCtx := l.vars.EvalContext()
	block := config.Block{Scope: b.Scope}
	for _, e := range entries {
		val, diags := e.expr.Value(evalCtx)
		if diags.HasErrors() {
			return config.Block{}, fmt.Errorf("invalid value for %q: %w", e.key, diags)
		}
		rng := e.expr.Range()
		pos := config.Position{File: rng.Filename, Line: rng.Start.Line}
		block.Settings = append(block.Settings, flatten(e.key, val, pos)...)
	}
	return block, nil
}

// flatten expands object values into dotted keys, so that
// `manifestPlaceholders = { a = "x" }` yields `manifestPlaceholders.a`.
func flatten(key string, val cty.Value, pos config.Position) []config.Setting {
	ty := val.Type()
	if val.IsNull() || !val.IsKnown() || !(ty.IsObjectType() || ty.IsMapType()) {
		return []config.Setting{{Key: key, Value: val, Pos: pos}}
	}

	m := val.AsValueMap()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []config.Setting
	for _, name := range names {
		out = append(out, flatten(key+"."+name, m[name], pos)...)
	}
	return out
}
