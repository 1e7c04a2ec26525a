package llm

import (
	"context"

	"github.com/joseph-ayodele/docverify/internal/schema"
)

// EntityExtractor sends document text plus a schema to the extraction
// service and returns the "result" member exactly as received.
type EntityExtractor interface {
	Extract(ctx context.Context, text string, s schema.Schema) ([]byte, error)
}

// ExtractionResult is the decoded reply: a document-type label followed by
// one value per schema field, in schema order.
type ExtractionResult struct {
	Label  string
	Values []any
}

// Sequence returns the label and values as one slice, label first.
func (r ExtractionResult) Sequence() []any {
	out := make([]any, 0, len(r.Values)+1)
	out = append(out, r.Label)
	return append(out, r.Values...)
}
