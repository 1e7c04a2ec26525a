package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one expected value with a natural-language type/format hint.
type Field struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Schema is the ordered field list for a document type. The order is the
// order values come back from the extractor, so it must never be re-sorted.
type Schema struct {
	Type   string
	Fields []Field
}

func (s Schema) Len() int { return len(s.Fields) }

func (s Schema) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON encodes the schema as a JSON object whose members appear in
// field order. encoding/json sorts map keys, so maps cannot be used here.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", f.Key, err)
		}
		v, err := json.Marshal(f.Description)
		if err != nil {
			return nil, fmt.Errorf("encode description for %q: %w", f.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
