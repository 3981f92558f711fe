package agent

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionMarker introduces an action line in model output. Only lines
// whose trimmed text starts with this marker are treated as actions;
// everything else is ordinary prose.
const ActionMarker = "Action:"

// Action is one parsed function-call request extracted from model
// output. Malformed action lines still produce an Action carrying the
// original source text and a ParseError, so errors stay scoped to one
// line and the rest of the batch proceeds.
type Action struct {
	ID     string
	Name   string
	Args   []any
	Kwargs map[string]any
	// Source is the call text after the marker, as written (the whole
	// line when nothing follows the marker).
	Source string
	// ParseError is non-empty when the line failed to parse or named
	// an unknown tool.
	ParseError string
}

// Valid reports whether the action parsed cleanly.
func (a *Action) Valid() bool { return a.ParseError == "" }

// ParseActions scans reasoning text line by line and extracts action
// requests. known reports whether a tool name exists in the registry;
// calls to unknown tools become per-line error records, never batch
// failures. The returned slice preserves source order.
func ParseActions(text string, known func(string) bool) []Action {
	var actions []Action

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, ActionMarker) {
			continue
		}
		src := strings.TrimSpace(strings.TrimPrefix(line, ActionMarker))
		if src == "" {
			actions = append(actions, Action{
				ID:         newID(),
				Source:     line,
				ParseError: "nothing follows the action marker",
			})
			continue
		}

		a := Action{ID: newID(), Source: src}

		name, args, kwargs, err := parseCall(src)
		if err != nil {
			a.ParseError = err.Error()
		} else if !known(name) {
			a.Name = name
			a.ParseError = fmt.Sprintf("tool %q is not defined or allowed", name)
		} else {
			a.Name = name
			a.Args = args
			a.Kwargs = kwargs
		}

		actions = append(actions, a)
	}

	return actions
}

// parseCall recognizes exactly one call expression:
//
//	name "(" [ literal | name "=" literal ] { "," ... } ")"
//
// with literal ∈ {string, number, boolean, null}. It is deliberately
// not a general expression parser: variable references, arithmetic,
// attribute access, and nested calls are rejected outright, because
// their absence is the safety property the engine relies on.
func parseCall(src string) (name string, args []any, kwargs map[string]any, err error) {
	s := &callScanner{input: src}

	name = s.scanIdent()
	if name == "" {
		return "", nil, nil, fmt.Errorf("action must be a direct function call")
	}

	s.skipSpace()
	if !s.consume('(') {
		return "", nil, nil, fmt.Errorf("expected '(' after tool name %q", name)
	}

	kwargs = map[string]any{}
	seenKwarg := false

	for {
		s.skipSpace()
		if s.consume(')') {
			break
		}
		if len(args) > 0 || len(kwargs) > 0 {
			if !s.consume(',') {
				return "", nil, nil, fmt.Errorf("expected ',' or ')' at %q", s.rest())
			}
			s.skipSpace()
			// Tolerate a trailing comma before ')'.
			if s.consume(')') {
				break
			}
		}

		// An identifier here is either a keyword argument name or a
		// word literal (true/false/null). Anything else identifier-like
		// is a variable reference or nested call: unsafe.
		if isIdentStart(s.peek()) {
			ident := s.scanIdent()
			s.skipSpace()
			switch {
			case s.peek() == '(':
				return "", nil, nil, fmt.Errorf("nested call %q is not allowed, use literals only", ident)
			case s.consume('='):
				s.skipSpace()
				val, lerr := s.scanArgValue()
				if lerr != nil {
					return "", nil, nil, fmt.Errorf("keyword argument %q: %w", ident, lerr)
				}
				if _, dup := kwargs[ident]; dup {
					return "", nil, nil, fmt.Errorf("duplicate keyword argument %q", ident)
				}
				kwargs[ident] = val
				seenKwarg = true
			default:
				val, ok := wordLiteral(ident)
				if !ok {
					return "", nil, nil, fmt.Errorf("argument %q is unsafe, use literals only", ident)
				}
				if seenKwarg {
					return "", nil, nil, fmt.Errorf("positional argument after keyword argument")
				}
				args = append(args, val)
			}
			continue
		}

		if seenKwarg {
			return "", nil, nil, fmt.Errorf("positional argument after keyword argument")
		}
		val, lerr := s.scanLiteral()
		if lerr != nil {
			return "", nil, nil, lerr
		}
		args = append(args, val)
	}

	s.skipSpace()
	if !s.done() {
		return "", nil, nil, fmt.Errorf("unexpected trailing text %q after call", s.rest())
	}

	return name, args, kwargs, nil
}

// callScanner is a minimal cursor over one action line.
type callScanner struct {
	input string
	pos   int
}

func (s *callScanner) done() bool { return s.pos >= len(s.input) }

func (s *callScanner) peek() byte {
	if s.done() {
		return 0
	}
	return s.input[s.pos]
}

func (s *callScanner) consume(c byte) bool {
	if s.peek() == c {
		s.pos++
		return true
	}
	return false
}

func (s *callScanner) skipSpace() {
	for !s.done() && (s.input[s.pos] == ' ' || s.input[s.pos] == '\t') {
		s.pos++
	}
}

func (s *callScanner) rest() string {
	if s.done() {
		return ""
	}
	r := s.input[s.pos:]
	if len(r) > 20 {
		r = r[:20] + "..."
	}
	return r
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (s *callScanner) scanIdent() string {
	start := s.pos
	if !isIdentStart(s.peek()) {
		return ""
	}
	for !s.done() && isIdentChar(s.input[s.pos]) {
		s.pos++
	}
	return s.input[start:s.pos]
}

// wordLiteral maps bare-word literals to values. Both Go/JSON and
// Python spellings are accepted because the models behind the original
// bot emit Python-flavored calls.
func wordLiteral(ident string) (any, bool) {
	switch ident {
	case "true", "True":
		return true, true
	case "false", "False":
		return false, true
	case "null", "None":
		return nil, true
	}
	return nil, false
}

// scanArgValue scans any literal in value position, including the
// bare-word literals (true/False/None) that follow a '='. Identifiers
// that are not word literals are rejected the same way positional
// arguments reject them.
func (s *callScanner) scanArgValue() (any, error) {
	if isIdentStart(s.peek()) {
		word := s.scanIdent()
		val, ok := wordLiteral(word)
		if !ok {
			return nil, fmt.Errorf("argument %q is unsafe, use literals only", word)
		}
		return val, nil
	}
	return s.scanLiteral()
}

// scanLiteral scans one string or number literal. Word literals are
// handled by the caller (they are lexed as identifiers).
func (s *callScanner) scanLiteral() (any, error) {
	switch c := s.peek(); {
	case c == '"' || c == '\'':
		return s.scanString(c)
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return s.scanNumber()
	case c == 0:
		return nil, fmt.Errorf("unexpected end of call, expected a literal")
	default:
		return nil, fmt.Errorf("unexpected character %q, expected a literal", string(c))
	}
}

func (s *callScanner) scanString(quote byte) (any, error) {
	s.pos++ // opening quote
	var sb strings.Builder
	for !s.done() {
		c := s.input[s.pos]
		switch c {
		case quote:
			s.pos++
			return sb.String(), nil
		case '\\':
			s.pos++
			if s.done() {
				return nil, fmt.Errorf("unterminated escape in string literal")
			}
			e := s.input[s.pos]
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(e)
			default:
				// Unknown escapes pass through verbatim.
				sb.WriteByte('\\')
				sb.WriteByte(e)
			}
			s.pos++
		default:
			sb.WriteByte(c)
			s.pos++
		}
	}
	return nil, fmt.Errorf("unterminated string literal")
}

func (s *callScanner) scanNumber() (any, error) {
	start := s.pos
	if s.peek() == '-' || s.peek() == '+' {
		s.pos++
	}
	digits := 0
	for !s.done() && s.input[s.pos] >= '0' && s.input[s.pos] <= '9' {
		s.pos++
		digits++
	}
	isFloat := false
	if s.peek() == '.' {
		isFloat = true
		s.pos++
		for !s.done() && s.input[s.pos] >= '0' && s.input[s.pos] <= '9' {
			s.pos++
			digits++
		}
	}
	if c := s.peek(); c == 'e' || c == 'E' {
		isFloat = true
		s.pos++
		if s.peek() == '-' || s.peek() == '+' {
			s.pos++
		}
		expDigits := 0
		for !s.done() && s.input[s.pos] >= '0' && s.input[s.pos] <= '9' {
			s.pos++
			expDigits++
		}
		if expDigits == 0 {
			return nil, fmt.Errorf("malformed number %q", s.input[start:s.pos])
		}
	}
	if digits == 0 {
		return nil, fmt.Errorf("malformed number %q", s.input[start:s.pos])
	}

	text := s.input[start:s.pos]
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed number %q", text)
	}
	return f, nil
}
