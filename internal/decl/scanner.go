package decl

import (
	"fmt"
	"strings"
)

type itemKind int

const (
	itemStatement itemKind = iota
	itemOpen
	itemClose
)

// item is one lexical unit of a declaration file: a statement, a block
// header followed by `{`, or a closing `}`.
type item struct {
	kind itemKind
	text string
	line int
}

// scan splits src into items. Comments are dropped. Newlines and `;` end a
// statement unless they appear inside parentheses, brackets, strings or a
// brace that belongs to an assigned value such as `x = y?.let { f(it) }`.
func scan(src string) ([]item, error) {
	s := &scanner{src: src, line: 1}
	return s.run()
}

type scanner struct {
	src   string
	pos   int
	line  int
	depth int

	buf       strings.Builder
	startLine int
	items     []item
}

func (s *scanner) peek(prefix string) bool {
	return strings.HasPrefix(s.src[s.pos:], prefix)
}

func (s *scanner) write(text string) {
	if s.buf.Len() == 0 {
		if strings.TrimSpace(text) == "" {
			return
		}
		s.startLine = s.line
	}
	s.buf.WriteString(text)
}

// writeByte appends c, collapsing runs of blanks into a single space.
func (s *scanner) writeByte(c byte) {
	blank := c == ' ' || c == '\t'
	if s.buf.Len() == 0 {
		if blank {
			return
		}
		s.startLine = s.line
	}
	if blank {
		if b := s.buf.String(); b[len(b)-1] == ' ' {
			return
		}
		c = ' '
	}
	s.buf.WriteByte(c)
}

func (s *scanner) flush(kind itemKind) {
	text := strings.TrimSpace(s.buf.String())
	line := s.startLine
	s.buf.Reset()
	if kind == itemStatement && text == "" {
		return
	}
	if line == 0 {
		line = s.line
	}
	s.items = append(s.items, item{kind: kind, text: text, line: line})
	s.startLine = 0
}

func (s *scanner) run() ([]item, error) {
	for s.pos < len(s.src) {
		switch {
		case s.peek("//"):
			s.skipUntil("\n", false)
		case s.peek("/*"):
			start := s.line
			if !s.skipUntil("*/", true) {
				return nil, fmt.Errorf("line %d: unterminated block comment", start)
			}
		case s.peek(`"""`):
			if err := s.readString(`"""`); err != nil {
				return nil, err
			}
		case s.peek(`"`):
			if err := s.readString(`"`); err != nil {
				return nil, err
			}
		default:
			if err := s.readRune(); err != nil {
				return nil, err
			}
		}
	}
	if s.depth != 0 {
		return nil, fmt.Errorf("line %d: unbalanced brackets", s.startLine)
	}
	s.flush(itemStatement)
	return s.items, nil
}

// skipUntil advances past the terminator. When consume is false the
// terminator itself is left in place.
func (s *scanner) skipUntil(term string, consume bool) bool {
	idx := strings.Index(s.src[s.pos:], term)
	if idx < 0 {
		s.line += strings.Count(s.src[s.pos:], "\n")
		s.pos = len(s.src)
		return false
	}
	end := s.pos + idx
	if consume {
		end += len(term)
	}
	s.line += strings.Count(s.src[s.pos:end], "\n")
	s.pos = end
	return true
}

func (s *scanner) readString(quote string) error {
	start := s.line
	i := s.pos + len(quote)
	for i < len(s.src) {
		if quote == `"` && s.src[i] == '\\' {
			i += 2
			continue
		}
		if quote == `"` && s.src[i] == '\n' {
			return fmt.Errorf("line %d: unterminated string", start)
		}
		if strings.HasPrefix(s.src[i:], quote) {
			i += len(quote)
			text := s.src[s.pos:i]
			s.write(text)
			s.line += strings.Count(text, "\n")
			s.pos = i
			return nil
		}
		i++
	}
	return fmt.Errorf("line %d: unterminated string", start)
}

func (s *scanner) readRune() error {
	c := s.src[s.pos]
	s.pos++
	switch c {
	case '(', '[':
		s.depth++
		s.writeByte(c)
	case ')', ']':
		s.depth--
		if s.depth < 0 {
			return fmt.Errorf("line %d: unexpected %q", s.line, c)
		}
		s.writeByte(c)
	case '{':
		if s.depth > 0 || s.inValue() {
			s.depth++
			s.writeByte(c)
			return nil
		}
		if s.buf.Len() == 0 {
			return fmt.Errorf("line %d: block without a name", s.line)
		}
		s.flush(itemOpen)
	case '}':
		if s.depth > 0 {
			s.depth--
			s.writeByte(c)
			return nil
		}
		s.flush(itemStatement)
		s.items = append(s.items, item{kind: itemClose, line: s.line})
	case ';':
		if s.depth > 0 {
			s.writeByte(c)
			return nil
		}
		s.flush(itemStatement)
	case '\n':
		if s.depth > 0 {
			s.writeByte(' ')
		} else {
			s.flush(itemStatement)
		}
		s.line++
	case '\r':
	default:
		s.writeByte(c)
	}
	return nil
}

// inValue reports whether the pending text is the right-hand side of an
// assignment, in which case a `{` opens a lambda rather than a block.
func (s *scanner) inValue() bool {
	_, _, _, ok := splitAssignment(s.buf.String())
	return ok
}
