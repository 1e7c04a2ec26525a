package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ParseLiteral decodes a Python-style literal such as
//
//	('aadhaar', 'Jane Doe', 123456789012, None, True)
//
// into Go values: string, json.Number, nil, bool, []any and map[string]any.
// Tuples and lists both become []any. Nothing is ever evaluated; any token
// outside this grammar is an error.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{src: s}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("literal at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value() (any, error) {
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '(':
		return p.sequence('(', ')')
	case c == '[':
		return p.sequence('[', ']')
	case c == '{':
		return p.dict()
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.keyword()
	}
}

func (p *literalParser) sequence(open, close byte) ([]any, error) {
	p.pos++ // open
	out := []any{}
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == close {
			p.pos++
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated %q", string(open))
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case close:
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or %q", string(close))
		}
	}
}

func (p *literalParser) dict() (map[string]any, error) {
	p.pos++ // {
	out := map[string]any{}
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '}' {
			p.pos++
			return out, nil
		}
		if p.pos >= len(p.src) || (p.src[p.pos] != '\'' && p.src[p.pos] != '"') {
			return nil, p.errorf("dict keys must be strings")
		}
		k, err := p.str()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errorf("expected ':'")
		}
		p.pos++
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[k] = v
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated '{'")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}
}

func (p *literalParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return "", p.errorf("unterminated string")
}

var simpleEscapes = map[byte]byte{
	'\\': '\\', '\'': '\'', '"': '"', '/': '/',
	'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
}

// escape decodes one backslash sequence the way Python string literals do,
// plus JSON's \/ and UTF-16 surrogate pairs.
func (p *literalParser) escape(b *strings.Builder) error {
	if p.pos+1 >= len(p.src) {
		return p.errorf("dangling escape")
	}
	esc := p.src[p.pos+1]
	p.pos += 2

	if c, ok := simpleEscapes[esc]; ok {
		b.WriteByte(c)
		return nil
	}
	switch {
	case esc == '\n':
		// line continuation
		return nil
	case esc == 'x':
		r, err := p.hexRune(2)
		if err != nil {
			return err
		}
		b.WriteRune(r)
	case esc == 'U':
		r, err := p.hexRune(8)
		if err != nil {
			return err
		}
		if !utf8.ValidRune(r) {
			return p.errorf("\\U escape out of range")
		}
		b.WriteRune(r)
	case esc == 'u':
		r, err := p.hexRune(4)
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) {
			if r, err = p.lowSurrogate(r); err != nil {
				return err
			}
		}
		b.WriteRune(r)
	case esc >= '0' && esc <= '7':
		r := rune(esc - '0')
		for i := 0; i < 2 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '7'; i++ {
			r = r*8 + rune(p.src[p.pos]-'0')
			p.pos++
		}
		b.WriteRune(r)
	default:
		// unknown escapes keep the backslash
		b.WriteByte('\\')
		b.WriteByte(esc)
	}
	return nil
}

func (p *literalParser) hexRune(n int) (rune, error) {
	if p.pos+n > len(p.src) {
		return 0, p.errorf("short hex escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return 0, p.errorf("bad hex escape %q", p.src[p.pos:p.pos+n])
	}
	p.pos += n
	return rune(v), nil
}

// lowSurrogate joins high with the \uXXXX that must follow it. A lone
// surrogate has no UTF-8 form and is rejected rather than replaced.
func (p *literalParser) lowSurrogate(high rune) (rune, error) {
	if high >= 0xDC00 || !strings.HasPrefix(p.src[p.pos:], "\\u") {
		return 0, p.errorf("unpaired surrogate \\u%04x", high)
	}
	p.pos += 2
	low, err := p.hexRune(4)
	if err != nil {
		return 0, err
	}
	r := utf16.DecodeRune(high, low)
	if r == utf8.RuneError {
		return 0, p.errorf("unpaired surrogate \\u%04x", high)
	}
	return r, nil
}

func (p *literalParser) number() (json.Number, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '_' ||
			((c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E')) {
			p.pos++
			continue
		}
		break
	}
	lit := strings.TrimPrefix(strings.ReplaceAll(p.src[start:p.pos], "_", ""), "+")
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return "", p.errorf("bad number %q", p.src[start:p.pos])
	}
	if !json.Valid([]byte(lit)) {
		// Python accepts forms like "1." and ".5" that JSON does not.
		lit = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return json.Number(lit), nil
}

func (p *literalParser) keyword() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' {
			p.pos++
			continue
		}
		break
	}
	switch word := p.src[start:p.pos]; word {
	case "None", "null":
		return nil, nil
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	default:
		p.pos = start
		return nil, p.errorf("unexpected token %q", word)
	}
}
