package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/llm"
	"github.com/joseph-ayodele/docverify/internal/schema"
)

type ParseStage struct {
	Extractor llm.EntityExtractor
	Logger    *slog.Logger
}

func NewParseStage(extractor llm.EntityExtractor, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Extractor: extractor, Logger: logger}
}

// Run sends text with the ordered schema, then parses and validates the reply
// against that same schema value so field order cannot drift.
func (p *ParseStage) Run(ctx context.Context, text string, s schema.Schema) (entity.ValidationReport, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, p.Logger)

	raw, err := p.Extractor.Extract(ctx, text, s)
	if err != nil {
		return entity.ValidationReport{}, err
	}

	res, err := llm.Parse(raw, s)
	if err != nil {
		logger.Error("pipeline.parse.failed", "document_type", s.Type, "raw", string(raw), "err", err)
		return entity.ValidationReport{}, err
	}

	report, err := llm.Validate(res, s)
	if err != nil {
		logger.Warn("pipeline.parse.mismatch", "expected", s.Type, "label", res.Label)
		return entity.ValidationReport{}, err
	}

	logger.Info("pipeline.parse.ok",
		"document_type", s.Type,
		"valid", report.Valid,
		"invalid_keys", report.InvalidKeys(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}
