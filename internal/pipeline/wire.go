package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/ingest"
	"github.com/joseph-ayodele/docverify/internal/llm"
	"github.com/joseph-ayodele/docverify/internal/ocr"
)

// NewVerifierFromConfig wires the ingestion gate, rasterizer, OCR client and
// LLM client from cfg. runs may be nil.
func NewVerifierFromConfig(cfg *common.Config, logger *slog.Logger, runs RunRecorder) *Verifier {
	raster := ocr.NewRasterizer(ocr.RasterConfig{
		Pdftoppm: cfg.Raster.Pdftoppm,
		DPI:      cfg.Raster.DPI,
		Workers:  cfg.Raster.Workers,
		OutDir:   cfg.Scratch.Dir,
	}, logger)
	ocrClient := ocr.NewClient(ocr.ClientConfig{BaseURL: cfg.OCR.URL, Timeout: cfg.OCR.Timeout}, logger)
	llmClient := llm.NewClient(llm.Config{BaseURL: cfg.LLM.URL, Timeout: cfg.LLM.Timeout}, logger)

	return NewVerifier(logger,
		ingest.NewGate(cfg.Scratch.Dir, cfg.Server.MaxUploadBytes, logger),
		NewOCRStage(raster, ocrClient, cfg.OCR.Concurrency, logger),
		NewParseStage(llmClient, logger),
		runs,
	)
}
