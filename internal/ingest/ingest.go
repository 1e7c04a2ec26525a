package ingest

import (
	"context"
	"io"

	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/scratch"
)

// FileResult is the per-file outcome of a directory walk.
type FileResult struct {
	Path string
	Err  string
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Ingestor is the behavior the pipeline depends on.
type Ingestor interface {
	// Accept validates the declared content type and persists r to scratch storage.
	Accept(ctx context.Context, r io.Reader, contentType string, tracker scratch.Tracker) (entity.UploadedDocument, error)
	// IngestPath copies a local file through Accept, typed by its extension.
	IngestPath(ctx context.Context, path string, tracker scratch.Tracker) (entity.UploadedDocument, error)
}
