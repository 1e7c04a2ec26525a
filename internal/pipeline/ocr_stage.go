package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/ocr"
	"github.com/joseph-ayodele/docverify/internal/scratch"
)

// Rasterizer turns an upload into ordered page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc entity.UploadedDocument, tracker scratch.Tracker) ([]entity.PageImage, error)
}

// Recognizer produces text (or a derived image) for one page.
type Recognizer interface {
	Recognize(ctx context.Context, page entity.PageImage, docType string, tracker scratch.Tracker) (ocr.PageOutcome, error)
	ExtractText(ctx context.Context, path string) (string, error)
}

type OCRStage struct {
	Raster      Rasterizer
	OCR         Recognizer
	Concurrency int
	Logger      *slog.Logger
}

func NewOCRStage(raster Rasterizer, rec Recognizer, concurrency int, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &OCRStage{Raster: raster, OCR: rec, Concurrency: concurrency, Logger: logger}
}

// Run rasterizes doc, recognizes every page concurrently and joins the page
// texts in page order. Returns the document text and the page count.
func (s *OCRStage) Run(ctx context.Context, doc entity.UploadedDocument, docType string, tracker scratch.Tracker) (string, int, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, s.Logger)

	pages, err := s.Raster.Rasterize(ctx, doc, tracker)
	if err != nil {
		return "", 0, err
	}

	texts := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for i, page := range pages {
		g.Go(func() error {
			text, err := s.recognize(gctx, page, docType, tracker)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", len(pages), err
	}

	text := ocr.Aggregate(texts)
	logger.Info("pipeline.ocr.ok",
		"pages", len(pages),
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, len(pages), nil
}

// recognize resolves artifacts explicitly: a de-watermarked image is sent
// through text extraction before it can join the document text.
func (s *OCRStage) recognize(ctx context.Context, page entity.PageImage, docType string, tracker scratch.Tracker) (string, error) {
	out, err := s.OCR.Recognize(ctx, page, docType, tracker)
	if err != nil {
		return "", err
	}
	switch out.Kind {
	case ocr.OutcomeText:
		return out.Text, nil
	case ocr.OutcomeArtifact:
		common.LoggerFromContext(ctx, s.Logger).Debug("pipeline.ocr.artifact", "page", page.Ordinal, "path", out.ArtifactPath)
		return s.OCR.ExtractText(ctx, out.ArtifactPath)
	default:
		return "", fmt.Errorf("page %d: unknown outcome %v", page.Ordinal, out.Kind)
	}
}
