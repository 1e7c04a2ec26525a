package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/scratch"
)

const defaultMaxUploadBytes = 20 << 20

// Gate admits uploads of an allowed media type into the scratch directory.
type Gate struct {
	Dir      string
	MaxBytes int64
	Logger   *slog.Logger

	now func() time.Time
}

func NewGate(dir string, maxBytes int64, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &Gate{Dir: dir, MaxBytes: maxBytes, Logger: logger, now: time.Now}
}

// Accept checks contentType against the allow-list before touching disk, then
// streams r into upload_<request_id>_<unix_nanos>.<ext>. The file is tracked
// before it is created.
func (g *Gate) Accept(ctx context.Context, r io.Reader, contentType string, tracker scratch.Tracker) (entity.UploadedDocument, error) {
	ct := constants.NormalizeContentType(contentType)
	allowed, ok := constants.AllowedContentTypes[ct]
	if !ok {
		g.Logger.Warn("ingest.rejected", "request_id", common.RequestIDFromContext(ctx), "content_type", contentType)
		return entity.UploadedDocument{}, common.NewKindError(common.ErrUnsupportedMediaType, "INGEST",
			fmt.Sprintf("unsupported content type %q", contentType), nil)
	}

	_, reqID := common.EnsureRequestID(ctx)
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return entity.UploadedDocument{}, common.NewAppError("INGEST", "create scratch dir", err)
	}

	name := fmt.Sprintf("upload_%s_%d.%s", reqID, g.now().UnixNano(), allowed.Ext)
	path := filepath.Join(g.Dir, name)
	tracker.Track(path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return entity.UploadedDocument{}, common.NewAppError("INGEST", "create scratch file", err)
	}
	n, copyErr := io.Copy(f, io.LimitReader(r, g.MaxBytes+1))
	if err := f.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		return entity.UploadedDocument{}, common.NewAppError("INGEST", "write scratch file", copyErr)
	}
	if n > g.MaxBytes {
		return entity.UploadedDocument{}, common.NewKindError(common.ErrUploadTooLarge, "INGEST",
			fmt.Sprintf("upload exceeds %d bytes", g.MaxBytes), nil)
	}
	if n == 0 {
		return entity.UploadedDocument{}, common.NewAppError("INGEST", "empty upload", common.ErrInvalidInput)
	}

	g.Logger.Info("ingest.accepted",
		"request_id", reqID,
		"content_type", ct,
		"kind", allowed.Kind,
		"bytes", n,
		"path", path,
	)
	return entity.UploadedDocument{Path: path, ContentType: ct, Kind: allowed.Kind}, nil
}

// IngestPath opens a local file and admits it through Accept using the
// content type implied by its extension.
func (g *Gate) IngestPath(ctx context.Context, path string, tracker scratch.Tracker) (entity.UploadedDocument, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	ct := constants.ContentTypeForExt(ext)
	if ct == "" {
		return entity.UploadedDocument{}, common.NewKindError(common.ErrUnsupportedMediaType, "INGEST",
			fmt.Sprintf("unsupported or missing extension %q", ext), nil)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entity.UploadedDocument{}, common.NewAppError("INGEST", "open source file", common.ErrInvalidInput)
		}
		return entity.UploadedDocument{}, common.NewAppError("INGEST", "open source file", err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			g.Logger.Warn("ingest.close_error", "path", path, "error", err)
		}
	}(f)

	return g.Accept(ctx, f, ct, tracker)
}
