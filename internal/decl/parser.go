package decl

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/buildvariant/internal/config"
	"github.com/specialistvlad/buildvariant/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

var (
	// getByName("release"), create("staging"), tasks.register("clean", Delete::class)
	namedHeaderRe = regexp.MustCompile(`^(?:[\w.]+\.)?(?:getByName|create|named|register|maybeCreate)\(\s*"([^"]*)"`)
	identRe       = regexp.MustCompile(`^[A-Za-z_][\w.]*`)
	indexedKeyRe  = regexp.MustCompile(`^([A-Za-z_][\w.]*)\s*\[\s*"([^"]*)"\s*\]$`)
	plainKeyRe    = regexp.MustCompile(`^[A-Za-z_][\w.]*$`)
	callRe        = regexp.MustCompile(`(?s)^([A-Za-z_][\w.]*)\s*\((.*)\)$`)
	pluginRe      = regexp.MustCompile(`^(\w+)\(\s*"([^"]+)"\s*\)(?:\s+version\s+"([^"]*)")?`)
	stringLitRe   = regexp.MustCompile(`^"([^"\\]*)"$`)
	platformRe    = regexp.MustCompile(`^(platform|enforcedPlatform)\(\s*(.*)\s*\)$`)
	// if (...), else, else if (...), when, when (...) and when branches `x ->`
	controlRe = regexp.MustCompile(`^(?:if\s*\(.*\)|else(?:\s+if\s*\(.*\))?|when(?:\s*\(.*\))?|.*->)$`)
)

// frame is one open block while parsing.
type frame struct {
	segment string
	line    int
	// conditional frames add no scope segment; their settings belong to the
	// enclosing block.
	conditional bool
	settings    []config.Setting
}

type parser struct {
	loader   *Loader
	filename string
	model    *config.Model
	stack    []*frame
	top      frame
}

// Parse translates the declaration source of a single file into a model.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	logger := ctxlog.FromContext(ctxlog.With(ctx, "file", filename))
	items, err := scan(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	logger.Debug("Scanned declaration file.", "items", len(items))

	p := &parser{loader: l, filename: filename, model: &config.Model{}}
	for _, it := range items {
		switch it.kind {
		case itemOpen:
			p.flush(p.current())
			if controlRe.MatchString(it.text) {
				p.stack = append(p.stack, &frame{segment: it.text, line: it.line, conditional: true})
				continue
			}
			p.stack = append(p.stack, &frame{segment: headerSegment(it.text), line: it.line})
		case itemClose:
			if len(p.stack) == 0 {
				return nil, fmt.Errorf("%s:%d: unexpected '}'", filename, it.line)
			}
			p.flush(p.current())
			p.stack = p.stack[:len(p.stack)-1]
		case itemStatement:
			f := p.current()
			setting := p.statement(it)
			setting.Conditional = p.conditional()
			f.settings = append(f.settings, setting)
		}
	}
	if len(p.stack) > 0 {
		open := p.stack[len(p.stack)-1]
		return nil, fmt.Errorf("%s:%d: block %q is never closed", filename, open.line, open.segment)
	}
	p.flush(&p.top)

	logger.Debug("Parsed declaration file.", "blocks", len(p.model.Blocks), "settings", p.model.SettingCount())
	return p.model, nil
}

func (p *parser) current() *frame {
	if len(p.stack) == 0 {
		return &p.top
	}
	return p.stack[len(p.stack)-1]
}

func (p *parser) scope() string {
	segments := make([]string, 0, len(p.stack))
	for _, f := range p.stack {
		if !f.conditional {
			segments = append(segments, f.segment)
		}
	}
	return strings.Join(segments, ".")
}

func (p *parser) conditional() bool {
	for _, f := range p.stack {
		if f.conditional {
			return true
		}
	}
	return false
}

// flush turns the pending settings of f into a block. Opening a nested
// block therefore splits its parent into separate blocks.
func (p *parser) flush(f *frame) {
	if len(f.settings) == 0 {
		return
	}
	p.model.Append(config.Block{Scope: p.scope(), Settings: f.settings})
	f.settings = nil
}

func (p *parser) lastSegment() string {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if !p.stack[i].conditional {
			return p.stack[i].segment
		}
	}
	return ""
}

// headerSegment derives the scope segment from a block header such as
// `android`, `getByName("release")` or `maven`.
func headerSegment(header string) string {
	if m := namedHeaderRe.FindStringSubmatch(header); m != nil {
		return m[1]
	}
	if m := identRe.FindString(header); m != "" {
		return m
	}
	return header
}

func (p *parser) statement(it item) config.Setting {
	pos := config.Position{File: p.filename, Line: it.line}

	if lhs, op, rhs, ok := splitAssignment(it.text); ok {
		key := normalizeKey(lhs)
		if op != "=" {
			return config.Setting{Key: key, Value: cty.StringVal(op + " " + rhs), Raw: true, Pos: pos}
		}
		ev := p.loader.evaluate(rhs, p.filename, it.line)
		return config.Setting{Key: key, Value: ev.value, Raw: ev.raw, Unresolved: ev.unresolved, Pos: pos}
	}

	switch p.lastSegment() {
	case "plugins":
		if m := pluginRe.FindStringSubmatch(it.text); m != nil {
			return config.Setting{Key: m[1] + ":" + m[2], Value: cty.StringVal(m[3]), Pos: pos}
		}
	case "dependencies":
		if m := callRe.FindStringSubmatch(it.text); m != nil {
			key, version := dependency(m[1], strings.TrimSpace(m[2]))
			return config.Setting{Key: key, Value: cty.StringVal(version), Pos: pos}
		}
	}

	if m := callRe.FindStringSubmatch(it.text); m != nil {
		return config.Setting{Key: m[1], Value: cty.StringVal(strings.TrimSpace(m[2])), Raw: true, Pos: pos}
	}
	return config.Setting{Key: it.text, Value: cty.StringVal(""), Raw: true, Pos: pos}
}

// dependency maps a dependency declaration to its setting key and pinned
// version. Declarations of the same module under the same configuration
// share a key, so a later pin overrides an earlier one.
func dependency(configuration, args string) (string, string) {
	if m := platformRe.FindStringSubmatch(args); m != nil {
		configuration += "." + m[1]
		args = strings.TrimSpace(m[2])
	}
	if m := stringLitRe.FindStringSubmatch(args); m != nil {
		if c, err := ParseCoordinate(m[1]); err == nil {
			return configuration + ":" + c.Module(), c.Version
		}
	}
	return configuration + ":" + args, ""
}

// splitAssignment finds the first top-level assignment operator in a
// statement. Comparison operators and anything inside strings, parentheses
// or brackets are ignored.
func splitAssignment(stmt string) (lhs, op, rhs string, ok bool) {
	depth := 0
	inString := false
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}
			if i+1 < len(stmt) && stmt[i+1] == '=' {
				i++
				continue
			}
			start := i
			if i > 0 && strings.IndexByte("+-*/", stmt[i-1]) >= 0 {
				start = i - 1
			} else if i > 0 && strings.IndexByte("!<>", stmt[i-1]) >= 0 {
				continue
			}
			lhs = strings.TrimSpace(stmt[:start])
			lhs = strings.TrimPrefix(strings.TrimPrefix(lhs, "val "), "var ")
			if !plainKeyRe.MatchString(lhs) && !indexedKeyRe.MatchString(lhs) {
				return "", "", "", false
			}
			return lhs, stmt[start : i+1], strings.TrimSpace(stmt[i+1:]), true
		}
	}
	return "", "", "", false
}

// normalizeKey turns `manifestPlaceholders["k"]` into `manifestPlaceholders.k`.
func normalizeKey(lhs string) string {
	if m := indexedKeyRe.FindStringSubmatch(lhs); m != nil {
		return m[1] + "." + m[2]
	}
	return lhs
}
