package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/schema"
)

// DecodeSequence turns the raw "result" member into a sequence. The member
// may be a JSON array or a string holding either a JSON array or a Python
// tuple/list literal.
func DecodeSequence(raw []byte) ([]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty result")
	}

	var v any
	switch raw[0] {
	case '[':
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		if dec.More() {
			return nil, fmt.Errorf("trailing data after array")
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode string: %w", err)
		}
		lit, err := ParseLiteral(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		v = lit
	default:
		return nil, fmt.Errorf("result must be an array or a string, got %q", truncate(string(raw), 32))
	}

	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("result is %T, not a sequence", v)
	}
	return seq, nil
}

// Parse decodes raw and checks it has exactly one label plus one value per
// schema field. It never pads or truncates.
func Parse(raw []byte, s schema.Schema) (ExtractionResult, error) {
	seq, err := DecodeSequence(raw)
	if err != nil {
		return ExtractionResult{}, common.NewKindError(common.ErrResultParse, "PARSE", "undecodable result", err)
	}
	if err := ValidateAgainstSchema(BuildResultJSONSchema(s.Len()), seq); err != nil {
		msg := fmt.Sprintf("expected %d items (label + %d fields), got %d", s.Len()+1, s.Len(), len(seq))
		if len(seq) == s.Len()+1 {
			// arity holds, so the label is what failed
			msg = fmt.Sprintf("label must be a string, got %T", seq[0])
		}
		return ExtractionResult{}, common.NewKindError(common.ErrResultParse, "PARSE", msg, err)
	}
	label, _ := seq[0].(string)
	return ExtractionResult{Label: label, Values: seq[1:]}, nil
}

// Validate checks the label against the schema's document type and pairs
// each field with its value by position. A falsy value marks the field
// invalid; the report is valid only if every field is.
func Validate(res ExtractionResult, s schema.Schema) (entity.ValidationReport, error) {
	if res.Label != s.Type {
		return entity.ValidationReport{}, common.NewKindError(common.ErrDocumentTypeMismatch, "PARSE",
			fmt.Sprintf("expected %q, extractor labelled %q", s.Type, res.Label), nil)
	}
	if len(res.Values) != s.Len() {
		return entity.ValidationReport{}, common.NewKindError(common.ErrResultParse, "PARSE",
			fmt.Sprintf("expected %d values, got %d", s.Len(), len(res.Values)), nil)
	}

	report := entity.ValidationReport{
		DocumentType: s.Type,
		Fields:       make([]entity.FieldResult, s.Len()),
		Valid:        true,
		Entity:       res.Sequence(),
	}
	for i, f := range s.Fields {
		v := res.Values[i]
		ok := !IsFalsy(v)
		report.Fields[i] = entity.FieldResult{Key: f.Key, Value: v, Valid: ok}
		report.Valid = report.Valid && ok
	}
	return report, nil
}

// IsFalsy reports whether v counts as empty: nil, false, zero, a blank
// string, or an empty list or object.
func IsFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return strings.TrimSpace(t) == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case int:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
