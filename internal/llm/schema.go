package llm

// BuildResultJSONSchema returns a JSON-Schema (draft 2020-12) for a reply to
// a schema with n fields: an array of exactly n+1 items whose first item is
// the document-type label.
func BuildResultJSONSchema(n int) map[string]any {
	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"type":        "array",
		"minItems":    n + 1,
		"maxItems":    n + 1,
		"prefixItems": []any{map[string]any{"type": "string"}},
	}
}
