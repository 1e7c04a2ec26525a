package async

import (
	"context"
	"time"
)

// Job is one local file waiting to be verified.
type Job struct {
	Path         string
	DocumentType string
	SubmittedAt  time.Time
}

// Handler processes a job. Errors are logged by the queue and do not stop it.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
