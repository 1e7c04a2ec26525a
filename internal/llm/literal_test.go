package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{"tuple of strings", `('aadhaar', 'Jane Doe')`, []any{"aadhaar", "Jane Doe"}},
		{"list with double quotes", `["a", "b"]`, []any{"a", "b"}},
		{"numbers", `(12, -3.5, 1e3, 1_000, .5)`, []any{json.Number("12"), json.Number("-3.5"), json.Number("1e3"), json.Number("1000"), json.Number("0.5")}},
		{"keywords", `(None, True, False, null, true)`, []any{nil, true, false, nil, true}},
		{"trailing comma", `('x', 'y',)`, []any{"x", "y"}},
		{"single element tuple", `('x',)`, []any{"x"}},
		{"empty tuple", `()`, []any{}},
		{"nested", `('a', ['b', ('c',)], {'k': 1})`, []any{"a", []any{"b", []any{"c"}}, map[string]any{"k": json.Number("1")}}},
		{"escapes", `('it\'s', "say \"hi\"", 'a\nb', 'é')`, []any{"it's", `say "hi"`, "a\nb", "é"}},
		{"unicode passthrough", `('Łódź',)`, []any{"Łódź"}},
		{"whitespace", " \n ( 'a' ,\t'b' ) \n", []any{"a", "b"}},
		{"hex escape", `('Jane\xa0Doe',)`, []any{"Jane\u00a0Doe"}},
		{"hex control", `('1234\x0c',)`, []any{"1234\f"}},
		{"long unicode escape", `('\U0001F600',)`, []any{"\U0001F600"}},
		{"short unicode escape", `('caf\u00e9',)`, []any{"café"}},
		{"surrogate pair", `("J\ud83d\ude00",)`, []any{"J\U0001F600"}},
		{"control escapes", `('\a\b\f\v',)`, []any{"\a\b\f\v"}},
		{"octal escapes", `('\0\12\101\1011',)`, []any{"\x00\nAA1"}},
		{"json solidus", `["a\/b"]`, []any{"a/b"}},
		{"line continuation", "('ab\\\ncd',)", []any{"abcd"}},
		{"unknown escape kept", `('C:\dir',)`, []any{`C:\dir`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiteral(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLiteralRejectsCode(t *testing.T) {
	for _, in := range []string{
		`__import__('os').system('rm -rf /')`,
		`('a', open('x'))`,
		`('a', 1 + 2)`,
		`('a', 'b'`,
		`('a' 'b')`,
		`'unterminated`,
		`('a',) extra`,
		``,
		`{1: 'x'}`,
		`('\x4',)`,
		`('\xzz',)`,
		`('\U00110000',)`,
		`('\ud83d',)`,
		`('\ud83dx',)`,
		`('\ude00\ud83d',)`,
		`('\ud83d\u0041',)`,
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseLiteral(in)
			assert.Error(t, err)
		})
	}
}

func TestParseDecodesReprEscapes(t *testing.T) {
	s := mustSchema(t, "proof_of_address")
	tests := []struct {
		name string
		raw  string
		want []any
	}{
		{"python repr", `"('proof_of_address', 'Jane\\xa0Doe', '12 Main St\\x0c')"`, []any{"Jane\u00a0Doe", "12 Main St\f"}},
		{"json in string", `"[\"proof_of_address\", \"J\\ud83d\\ude00\", \"a\\/b\"]"`, []any{"J\U0001F600", "a/b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse([]byte(tt.raw), s)
			require.NoError(t, err)
			assert.Equal(t, "proof_of_address", res.Label)
			assert.Equal(t, tt.want, res.Values)
		})
	}
}
