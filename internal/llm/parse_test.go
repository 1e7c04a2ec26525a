package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/schema"
)

func mustSchema(t *testing.T, docType string) schema.Schema {
	t.Helper()
	s, ok := schema.Lookup(docType)
	require.True(t, ok)
	return s
}

func TestDecodeSequenceForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []any
	}{
		{"json array", `["aadhaar", "Jane", 12]`, []any{"aadhaar", "Jane", json.Number("12")}},
		{"string with json array", `"[\"aadhaar\", \"Jane\"]"`, []any{"aadhaar", "Jane"}},
		{"string with python tuple", `"('aadhaar', 'Jane', None)"`, []any{"aadhaar", "Jane", nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSequence([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, raw := range []string{``, `{"a":1}`, `42`, `"'just a string'"`, `["a"] ["b"]`, `"(1, 2"`} {
		_, err := DecodeSequence([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestParseArityMustBeExact(t *testing.T) {
	for _, docType := range []string{"aadhaar", "proof_of_class", "degree_cert", "phd_cert"} {
		s := mustSchema(t, docType)
		n := s.Len()
		for size := 0; size <= n+3; size++ {
			t.Run(fmt.Sprintf("%s/%d items", docType, size), func(t *testing.T) {
				items := make([]string, size)
				for i := range items {
					items[i] = fmt.Sprintf("%q", fmt.Sprintf("v%d", i))
				}
				if size > 0 {
					items[0] = fmt.Sprintf("%q", docType)
				}
				raw := "[" + strings.Join(items, ",") + "]"

				res, err := Parse([]byte(raw), s)
				if size == n+1 {
					require.NoError(t, err)
					assert.Equal(t, docType, res.Label)
					assert.Len(t, res.Values, n)
					return
				}
				require.ErrorIs(t, err, common.ErrResultParse)
			})
		}
	}
}

func TestParseLabelMustBeString(t *testing.T) {
	s := mustSchema(t, "proof_of_address")
	tests := []struct {
		name string
		raw  string
	}{
		{"number", `[1, "Jane", "Somewhere"]`},
		{"null", `[null, "Jane", "Somewhere"]`},
		{"list", `[["proof_of_address"], "Jane", "Somewhere"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw), s)
			require.ErrorIs(t, err, common.ErrResultParse)
			assert.Contains(t, err.Error(), "label must be a string")
			assert.NotContains(t, err.Error(), "expected 3 items")
		})
	}

	_, err := Parse([]byte(`[1, "Jane"]`), s)
	require.ErrorIs(t, err, common.ErrResultParse)
	assert.Contains(t, err.Error(), "expected 3 items (label + 2 fields), got 2")
}

func TestValidateScenarios(t *testing.T) {
	s := mustSchema(t, "aadhaar")

	t.Run("all valid", func(t *testing.T) {
		res, err := Parse([]byte(`["aadhaar","Jane Doe","123456789012","01-01-1990","Some Address","Female"]`), s)
		require.NoError(t, err)
		report, err := Validate(res, s)
		require.NoError(t, err)
		assert.True(t, report.Valid)
		require.Len(t, report.Fields, 5)
		for i, f := range report.Fields {
			assert.Equal(t, s.Fields[i].Key, f.Key)
			assert.True(t, f.Valid)
		}
		assert.Equal(t, "123456789012", report.Fields[1].Value)
		assert.Len(t, report.Entity, 6)
	})

	t.Run("one empty field", func(t *testing.T) {
		res, err := Parse([]byte(`"('aadhaar', 'Jane Doe', '123456789012', '', 'Some Address', 'Female')"`), s)
		require.NoError(t, err)
		report, err := Validate(res, s)
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.Equal(t, []string{"date_of_birth"}, report.InvalidKeys())
	})

	t.Run("label mismatch", func(t *testing.T) {
		res, err := Parse([]byte(`["birth_cert","Jane Doe","123456789012","01-01-1990","Some Address","Female"]`), s)
		require.NoError(t, err)
		report, err := Validate(res, s)
		require.ErrorIs(t, err, common.ErrDocumentTypeMismatch)
		assert.Empty(t, report.Fields)
	})
}

func TestIsFalsy(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, true},
		{"", true},
		{"   ", true},
		{"x", false},
		{false, true},
		{true, false},
		{json.Number("0"), true},
		{json.Number("0.0"), true},
		{json.Number("7"), false},
		{[]any{}, true},
		{[]any{"a"}, false},
		{map[string]any{}, true},
		{float64(0), true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%#v", tt.v), func(t *testing.T) {
			assert.Equal(t, tt.want, IsFalsy(tt.v))
		})
	}
}
