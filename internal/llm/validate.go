package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var compiled sync.Map // string(schema json) -> *jsonschema.Schema

// ValidateAgainstSchema validates an already decoded value (as produced by
// json.Decoder with UseNumber or ParseLiteral) against schemaMap.
func ValidateAgainstSchema(schemaMap map[string]any, v any) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	key := string(b)
	sch, ok := compiled.Load(key)
	if !ok {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
			return fmt.Errorf("add schema: %w", err)
		}
		s, err := compiler.Compile("schema.json")
		if err != nil {
			return fmt.Errorf("compile schema: %w", err)
		}
		sch, _ = compiled.LoadOrStore(key, s)
	}
	if err := sch.(*jsonschema.Schema).Validate(v); err != nil {
		return fmt.Errorf("value does not match schema: %w", err)
	}
	return nil
}
