package entity

// FieldResult pairs a schema key with the value the extractor returned for it.
type FieldResult struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Valid bool   `json:"valid"`
}

// ValidationReport is the outcome of one verification.
type ValidationReport struct {
	RequestID    string        `json:"request_id"`
	DocumentType string        `json:"document_type"`
	Fields       []FieldResult `json:"fields"`
	Valid        bool          `json:"valid"`
	// Entity is the raw extracted sequence, label first.
	Entity []any `json:"entity"`
	Pages  int   `json:"pages"`
}

// InvalidKeys lists the keys whose values were empty.
func (r ValidationReport) InvalidKeys() []string {
	var out []string
	for _, f := range r.Fields {
		if !f.Valid {
			out = append(out, f.Key)
		}
	}
	return out
}
