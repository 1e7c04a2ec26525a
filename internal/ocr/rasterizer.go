package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/scratch"
)

type RasterConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // default 200
	Workers  int    // concurrent page renders, default 4
	OutDir   string // where page images are written; default os.TempDir()
}

// Rasterizer renders PDF pages to PNG files, one pdftoppm call per page.
type Rasterizer struct {
	cfg       RasterConfig
	runner    Runner
	pageCount func(path string) (int, error)
	logger    *slog.Logger
}

type RasterOption func(*Rasterizer)

// WithRunner replaces the command runner.
func WithRunner(r Runner) RasterOption {
	return func(z *Rasterizer) {
		if r != nil {
			z.runner = r
		}
	}
}

// WithPageCounter replaces the pdfcpu page counter.
func WithPageCounter(fn func(path string) (int, error)) RasterOption {
	return func(z *Rasterizer) {
		if fn != nil {
			z.pageCount = fn
		}
	}
}

func NewRasterizer(cfg RasterConfig, logger *slog.Logger, opts ...RasterOption) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.OutDir == "" {
		cfg.OutDir = os.TempDir()
	}
	z := &Rasterizer{
		cfg:       cfg,
		runner:    ExecRunner{Logger: logger},
		pageCount: api.PageCountFile,
		logger:    logger,
	}
	for _, o := range opts {
		o(z)
	}
	return z
}

// Rasterize returns one PageImage per page, ordered by page number whatever
// order the workers finish in. An image upload is returned as its own single
// page. Any page failure fails the whole document.
func (z *Rasterizer) Rasterize(ctx context.Context, doc entity.UploadedDocument, tracker scratch.Tracker) ([]entity.PageImage, error) {
	if doc.Kind != constants.KindPDF {
		return []entity.PageImage{{Ordinal: 1, Path: doc.Path}}, nil
	}

	start := time.Now()
	reqID := common.RequestIDFromContext(ctx)

	n, err := z.pageCount(doc.Path)
	if err != nil {
		return nil, common.NewKindError(common.ErrConversion, "RASTER", "read pdf", err)
	}
	if n <= 0 {
		return nil, common.NewKindError(common.ErrConversion, "RASTER", "pdf has no pages", nil)
	}

	if err := os.MkdirAll(z.cfg.OutDir, 0o755); err != nil {
		return nil, common.NewKindError(common.ErrConversion, "RASTER", "create output dir", err)
	}

	workers := z.cfg.Workers
	if workers > n {
		workers = n
	}
	z.logger.Debug("raster.start", "request_id", reqID, "pages", n, "workers", workers, "dpi", z.cfg.DPI)

	pages := make([]entity.PageImage, n)
	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for ordinal := 1; ordinal <= n; ordinal++ {
			select {
			case jobs <- ordinal:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for ordinal := range jobs {
				p, err := z.renderPage(gctx, doc.Path, reqID, ordinal, tracker)
				if err != nil {
					return err
				}
				pages[ordinal-1] = p
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		z.logger.Error("raster.failed", "request_id", reqID, "pages", n, "error", err)
		return nil, common.NewKindError(common.ErrConversion, "RASTER", "render pages", err)
	}

	z.logger.Info("raster.ok",
		"request_id", reqID,
		"pages", n,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

func (z *Rasterizer) renderPage(ctx context.Context, src, reqID string, ordinal int, tracker scratch.Tracker) (entity.PageImage, error) {
	prefix := filepath.Join(z.cfg.OutDir, fmt.Sprintf("page_%s_%d_%04d", reqID, time.Now().UnixNano(), ordinal))
	out := prefix + ".png"
	tracker.Track(out)

	page := strconv.Itoa(ordinal)
	// pdftoppm -r 200 -f N -l N -png -singlefile <in.pdf> <prefix>
	_, errb, err := z.runner.Run(ctx, z.cfg.Pdftoppm,
		"-r", strconv.Itoa(z.cfg.DPI),
		"-f", page, "-l", page,
		"-png", "-singlefile",
		src, prefix,
	)
	if err != nil {
		return entity.PageImage{}, fmt.Errorf("page %d: %w: %s", ordinal, err, truncate(string(errb), 512))
	}
	if _, err := os.Stat(out); err != nil {
		return entity.PageImage{}, fmt.Errorf("page %d: no image produced: %w", ordinal, err)
	}
	return entity.PageImage{Ordinal: ordinal, Path: out}, nil
}
