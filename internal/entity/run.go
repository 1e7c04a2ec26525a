package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docverify/constants"
)

// VerificationRun is the audit record written for every request.
type VerificationRun struct {
	ID            uuid.UUID            `json:"id"`
	RequestID     string               `json:"request_id"`
	DocumentType  string               `json:"document_type"`
	Source        string               `json:"source"`
	ContentType   string               `json:"content_type"`
	Pages         int                  `json:"pages"`
	Outcome       constants.RunOutcome `json:"outcome"`
	StatusCode    int                  `json:"status_code"`
	FieldsTotal   int                  `json:"fields_total"`
	FieldsInvalid int                  `json:"fields_invalid"`
	InvalidKeys   []string             `json:"invalid_keys,omitempty"`
	ErrorMessage  string               `json:"error_message,omitempty"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
}

// Duration is FinishedAt minus StartedAt.
func (r VerificationRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
