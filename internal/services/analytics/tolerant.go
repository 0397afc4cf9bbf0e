package analytics

import (
	"fmt"
	"regexp"
	"strings"
)

// ConvertLooseJSON rewrites fully unquoted dict-like text such as
//
//	{intent_level: High, reasoning: {intent: Customer asked about pricing, plans}}
//
// into valid JSON. Bare keys are quoted, Python literals are mapped to their
// JSON forms, and free-text values are quoted with escaping. The subtle part
// is comma handling: a comma only terminates a value when what follows it
// looks like another key (identifier-then-colon); otherwise the comma belongs
// to the sentence inside the value, as in "pricing, plans" above.
func ConvertLooseJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty input")
	}
	sc := &looseScanner{src: []rune(s)}

	var out string
	var err error
	switch s[0] {
	case '{':
		out, err = sc.convertObject()
	case '[':
		out, err = sc.convertArray()
	default:
		return "", fmt.Errorf("input is not an object or array")
	}
	if err != nil {
		return "", err
	}

	sc.skipWhitespace()
	if !sc.done() {
		return "", fmt.Errorf("trailing content at offset %d", sc.pos)
	}
	return out, nil
}

type looseScanner struct {
	src []rune
	pos int
}

func (sc *looseScanner) done() bool {
	return sc.pos >= len(sc.src)
}

func (sc *looseScanner) cur() rune {
	return sc.src[sc.pos]
}

func (sc *looseScanner) skipWhitespace() {
	for !sc.done() && isSpace(sc.cur()) {
		sc.pos++
	}
}

// convertObject consumes "{...}" from the scanner and returns its JSON form.
func (sc *looseScanner) convertObject() (string, error) {
	if sc.done() || sc.cur() != '{' {
		return "", fmt.Errorf("expected '{' at offset %d", sc.pos)
	}
	sc.pos++

	var b strings.Builder
	b.WriteByte('{')

	sc.skipWhitespace()
	if !sc.done() && sc.cur() == '}' {
		sc.pos++
		b.WriteByte('}')
		return b.String(), nil
	}

	first := true
	for {
		if sc.done() {
			return "", fmt.Errorf("unterminated object")
		}
		if !first {
			b.WriteByte(',')
		}
		first = false

		key, err := sc.readKey()
		if err != nil {
			return "", err
		}
		b.WriteString(quoteJSONString(key))
		b.WriteByte(':')

		sc.skipWhitespace()
		if sc.done() || sc.cur() != ':' {
			return "", fmt.Errorf("expected ':' after key %q at offset %d", key, sc.pos)
		}
		sc.pos++
		sc.skipWhitespace()

		value, err := sc.convertValue(false)
		if err != nil {
			return "", err
		}
		b.WriteString(value)

		sc.skipWhitespace()
		if sc.done() {
			return "", fmt.Errorf("unterminated object")
		}
		switch sc.cur() {
		case ',':
			sc.pos++
			sc.skipWhitespace()
		case '}':
			sc.pos++
			b.WriteByte('}')
			return b.String(), nil
		default:
			return "", fmt.Errorf("unexpected %q at offset %d", sc.cur(), sc.pos)
		}
	}
}

// convertArray consumes "[...]" and returns its JSON form. Array elements
// split on depth-zero commas; the key-lookahead rule does not apply inside
// arrays because arrays have no keys to disambiguate against.
func (sc *looseScanner) convertArray() (string, error) {
	if sc.done() || sc.cur() != '[' {
		return "", fmt.Errorf("expected '[' at offset %d", sc.pos)
	}
	sc.pos++

	var b strings.Builder
	b.WriteByte('[')

	sc.skipWhitespace()
	if !sc.done() && sc.cur() == ']' {
		sc.pos++
		b.WriteByte(']')
		return b.String(), nil
	}

	first := true
	for {
		if sc.done() {
			return "", fmt.Errorf("unterminated array")
		}
		if !first {
			b.WriteByte(',')
		}
		first = false

		sc.skipWhitespace()
		element, err := sc.convertValue(true)
		if err != nil {
			return "", err
		}
		b.WriteString(element)

		sc.skipWhitespace()
		if sc.done() {
			return "", fmt.Errorf("unterminated array")
		}
		switch sc.cur() {
		case ',':
			sc.pos++
		case ']':
			sc.pos++
			b.WriteByte(']')
			return b.String(), nil
		default:
			return "", fmt.Errorf("unexpected %q at offset %d", sc.cur(), sc.pos)
		}
	}
}

// readKey reads an object key, which may be quoted or a bare identifier.
// The scanner is left positioned at the colon.
func (sc *looseScanner) readKey() (string, error) {
	sc.skipWhitespace()
	if sc.done() {
		return "", fmt.Errorf("expected key, got end of input")
	}

	if sc.cur() == '"' || sc.cur() == '\'' {
		quote := sc.cur()
		sc.pos++
		start := sc.pos
		for !sc.done() && sc.cur() != quote {
			sc.pos++
		}
		if sc.done() {
			return "", fmt.Errorf("unterminated quoted key")
		}
		key := string(sc.src[start:sc.pos])
		sc.pos++
		return key, nil
	}

	start := sc.pos
	for !sc.done() && sc.cur() != ':' {
		sc.pos++
	}
	key := strings.TrimSpace(string(sc.src[start:sc.pos]))
	if key == "" {
		return "", fmt.Errorf("empty key at offset %d", start)
	}
	return key, nil
}

// convertValue consumes one value and returns its JSON form.
//
// Nested objects and arrays recurse. Everything else is scanned character by
// character with brace-depth tracking: the span ends either at the closing
// brace/bracket of the enclosing container or at a depth-zero comma. Inside an
// object a depth-zero comma only terminates the value when it is followed,
// after whitespace, by a key-then-colon pattern; a comma NOT followed by a key
// belongs to the value text itself. Inside an array every depth-zero comma
// separates elements, there are no keys to disambiguate against.
func (sc *looseScanner) convertValue(inArray bool) (string, error) {
	sc.skipWhitespace()
	if sc.done() {
		return "", fmt.Errorf("expected value, got end of input")
	}

	switch sc.cur() {
	case '{':
		return sc.convertObject()
	case '[':
		return sc.convertArray()
	}

	start := sc.pos
	depth := 0
	for !sc.done() {
		c := sc.cur()
		switch {
		case c == '"' || c == '\'':
			if err := sc.skipQuoted(c); err != nil {
				return "", err
			}
			continue
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			if depth == 0 {
				return scalarToJSON(string(sc.src[start:sc.pos])), nil
			}
			depth--
		case c == ',' && depth == 0:
			if inArray || sc.keyFollows(sc.pos+1) {
				return scalarToJSON(string(sc.src[start:sc.pos])), nil
			}
		}
		sc.pos++
	}
	// Top-level scalar with no enclosing container.
	return scalarToJSON(string(sc.src[start:sc.pos])), nil
}

// skipQuoted advances past a quoted run, honoring backslash escapes.
func (sc *looseScanner) skipQuoted(quote rune) error {
	sc.pos++
	for !sc.done() {
		switch sc.cur() {
		case '\\':
			sc.pos++
			if !sc.done() {
				sc.pos++
			}
		case quote:
			sc.pos++
			return nil
		default:
			sc.pos++
		}
	}
	return fmt.Errorf("unterminated quoted text")
}

// keyFollows reports whether the text at offset p looks like the start of the
// next key/value pair: optional whitespace, then a (possibly quoted)
// identifier, then a colon.
func (sc *looseScanner) keyFollows(p int) bool {
	for p < len(sc.src) && isSpace(sc.src[p]) {
		p++
	}
	if p >= len(sc.src) {
		return false
	}

	if sc.src[p] == '"' || sc.src[p] == '\'' {
		quote := sc.src[p]
		p++
		for p < len(sc.src) && sc.src[p] != quote {
			p++
		}
		if p >= len(sc.src) {
			return false
		}
		p++
	} else {
		start := p
		for p < len(sc.src) && isIdentRune(sc.src[p]) {
			p++
		}
		if p == start {
			return false
		}
	}

	for p < len(sc.src) && isSpace(sc.src[p]) {
		p++
	}
	return p < len(sc.src) && sc.src[p] == ':'
}

var numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)

// scalarToJSON renders a raw scalar span as JSON: numbers and boolean/null
// literals stay bare (Python spellings normalized), everything else becomes a
// quoted string with escaping.
func scalarToJSON(span string) string {
	v := strings.TrimSpace(span)
	switch v {
	case "null", "None", "none":
		return "null"
	case "true", "True":
		return "true"
	case "false", "False":
		return "false"
	case "":
		return `""`
	}
	if numberPattern.MatchString(v) {
		return v
	}
	// Already double-quoted strings pass through untouched.
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v
	}
	// Single-quoted strings are requoted.
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return quoteJSONString(v[1 : len(v)-1])
	}
	return quoteJSONString(v)
}

// quoteJSONString wraps s in double quotes, escaping backslashes, quotes and
// control characters.
func quoteJSONString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
