package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/ingest"
	"github.com/joseph-ayodele/docverify/internal/schema"
	"github.com/joseph-ayodele/docverify/internal/scratch"
)

// RunRecorder stores the audit row for a finished verification.
type RunRecorder interface {
	Record(ctx context.Context, run entity.VerificationRun) error
}

// VerifyRequest is one document to verify. Body with ContentType is an
// upload; otherwise SourcePath names a local file.
type VerifyRequest struct {
	DocumentType string
	ContentType  string
	Body         io.Reader
	SourcePath   string
	// Source labels the run in the audit log (uploaded filename or path).
	Source string
}

// Verifier coordinates ingestion, OCR and LLM parse for one request at a time.
// It holds no per-request state, so a single Verifier serves concurrent calls.
type Verifier struct {
	Logger *slog.Logger
	Ingest ingest.Ingestor
	OCR    *OCRStage
	Parse  *ParseStage
	Runs   RunRecorder // optional
}

func NewVerifier(logger *slog.Logger, in ingest.Ingestor, ocr *OCRStage, parse *ParseStage, runs RunRecorder) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{Logger: logger, Ingest: in, OCR: ocr, Parse: parse, Runs: runs}
}

// Verify runs the whole pipeline. Every scratch file created on the way is
// removed before Verify returns, whatever the outcome.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) (report entity.ValidationReport, err error) {
	ctx, reqID := common.EnsureRequestID(ctx)
	logger := v.Logger.With("request_id", reqID)
	ctx = common.WithLogger(ctx, logger)

	run := entity.VerificationRun{
		ID:           uuid.New(),
		RequestID:    reqID,
		DocumentType: req.DocumentType,
		Source:       req.Source,
		ContentType:  req.ContentType,
		StartedAt:    time.Now().UTC(),
	}
	defer func() {
		v.finish(ctx, logger, &run, report, err)
	}()

	s, ok := schema.Lookup(req.DocumentType)
	if !ok {
		return entity.ValidationReport{}, common.NewKindError(common.ErrUnknownSchema, "REQUEST", "schema is required", nil)
	}
	run.DocumentType = s.Type

	reaper := scratch.NewReaper(logger)
	defer reaper.Cleanup()

	logger.Info("pipeline.verify.start", "document_type", s.Type, "source", req.Source)

	var doc entity.UploadedDocument
	if req.Body != nil {
		doc, err = v.Ingest.Accept(ctx, req.Body, req.ContentType, reaper)
	} else {
		doc, err = v.Ingest.IngestPath(ctx, req.SourcePath, reaper)
	}
	if err != nil {
		return entity.ValidationReport{}, err
	}
	run.ContentType = doc.ContentType

	text, pages, err := v.OCR.Run(ctx, doc, s.Type, reaper)
	run.Pages = pages
	if err != nil {
		return entity.ValidationReport{}, err
	}

	report, err = v.Parse.Run(ctx, text, s)
	if err != nil {
		return entity.ValidationReport{}, err
	}
	report.RequestID = reqID
	report.Pages = pages
	return report, nil
}

func (v *Verifier) finish(ctx context.Context, logger *slog.Logger, run *entity.VerificationRun, report entity.ValidationReport, err error) {
	run.FinishedAt = time.Now().UTC()
	run.StatusCode = common.HTTPStatus(err)
	run.Outcome = outcomeFor(report, err)
	run.FieldsTotal = len(report.Fields)
	run.InvalidKeys = report.InvalidKeys()
	run.FieldsInvalid = len(run.InvalidKeys)

	if err != nil {
		run.ErrorMessage = err.Error()
		status, detail := common.UpstreamDiagnostics(err)
		level := slog.LevelError
		if common.IsClientError(err) {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "pipeline.verify.failed",
			"document_type", run.DocumentType,
			"outcome", run.Outcome,
			"upstream_status", status,
			"upstream_detail", detail,
			"elapsed_ms", run.Duration().Milliseconds(),
			"err", err,
		)
	} else {
		logger.Info("pipeline.verify.ok",
			"document_type", run.DocumentType,
			"outcome", run.Outcome,
			"pages", run.Pages,
			"elapsed_ms", run.Duration().Milliseconds(),
		)
	}

	if v.Runs == nil {
		return
	}
	if rerr := v.Runs.Record(context.WithoutCancel(ctx), *run); rerr != nil {
		logger.Warn("pipeline.run.record_failed", "run_id", run.ID, "error", rerr)
	}
}

func outcomeFor(report entity.ValidationReport, err error) constants.RunOutcome {
	switch {
	case err == nil && report.Valid:
		return constants.RunOutcomeValid
	case err == nil:
		return constants.RunOutcomeInvalid
	case errors.Is(err, common.ErrDocumentTypeMismatch):
		return constants.RunOutcomeMismatch
	case common.IsClientError(err):
		return constants.RunOutcomeRejected
	default:
		return constants.RunOutcomeFailed
	}
}
