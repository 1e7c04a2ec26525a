package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/scratch"
)

// OutcomeKind tells text results apart from derived images.
type OutcomeKind int

const (
	OutcomeText OutcomeKind = iota + 1
	// OutcomeArtifact is a derived image that still needs recognition.
	OutcomeArtifact
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeText:
		return "text"
	case OutcomeArtifact:
		return "artifact"
	default:
		return "unknown"
	}
}

// PageOutcome is what recognition produced for one page.
type PageOutcome struct {
	Ordinal      int
	Kind         OutcomeKind
	Text         string
	ArtifactPath string
}

type ClientConfig struct {
	BaseURL string        // e.g. http://localhost:8001
	Timeout time.Duration // per request, default 30s
}

// Client talks to the text-recognition service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type extractTextResponse struct {
	ExtractedText *string `json:"extracted_text"`
}

// Recognize handles one page. Watermarked document types are thresholded
// locally and come back as an artifact instead of text.
func (c *Client) Recognize(ctx context.Context, page entity.PageImage, docType string, tracker scratch.Tracker) (PageOutcome, error) {
	if docType == string(constants.WatermarkedType) {
		out := strings.TrimSuffix(page.Path, filepath.Ext(page.Path)) + "_nowm.jpg"
		tracker.Track(out)
		if err := StripWatermark(page.Path, out); err != nil {
			return PageOutcome{}, common.NewKindError(common.ErrConversion, "OCR", fmt.Sprintf("strip watermark page %d", page.Ordinal), err)
		}
		c.logger.Debug("ocr.watermark.stripped", "request_id", common.RequestIDFromContext(ctx), "page", page.Ordinal, "path", out)
		return PageOutcome{Ordinal: page.Ordinal, Kind: OutcomeArtifact, ArtifactPath: out}, nil
	}

	text, err := c.ExtractText(ctx, page.Path)
	if err != nil {
		return PageOutcome{}, err
	}
	return PageOutcome{Ordinal: page.Ordinal, Kind: OutcomeText, Text: text}, nil
}

// ExtractText posts an image to /extract-text and returns the recognized text.
func (c *Client) ExtractText(ctx context.Context, path string) (string, error) {
	reqID := common.RequestIDFromContext(ctx)
	start := time.Now()

	body, contentType, err := buildImageForm(path)
	if err != nil {
		return "", common.NewKindError(common.ErrOCRService, "OCR", "build request", err)
	}

	url := c.baseURL + "/extract-text"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", common.NewKindError(common.ErrOCRService, "OCR", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Info("ocr.http.request", "request_id", reqID, "url", url, "file", filepath.Base(path))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("ocr.http.send_error", "request_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", common.NewUpstreamError(common.ErrOCRService, "OCR", "request failed", 0, "", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("ocr.http.response_body_close_error", "request_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", common.NewUpstreamError(common.ErrOCRService, "OCR", "read response", resp.StatusCode, "", err)
	}

	c.logger.Info("ocr.http.response",
		"request_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		detail := truncate(string(raw), 512)
		c.logger.Error("ocr.http.status_error", "request_id", reqID, "status", resp.StatusCode, "body", detail)
		return "", common.NewUpstreamError(common.ErrOCRService, "OCR", fmt.Sprintf("non-2xx status: %d", resp.StatusCode), resp.StatusCode, detail, nil)
	}

	var out extractTextResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", common.NewUpstreamError(common.ErrOCRService, "OCR", "decode response", resp.StatusCode, truncate(string(raw), 512), err)
	}
	if out.ExtractedText == nil {
		return "", common.NewUpstreamError(common.ErrOCRService, "OCR", "response missing extracted_text", resp.StatusCode, truncate(string(raw), 512), nil)
	}
	return *out.ExtractedText, nil
}

func buildImageForm(path string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	partType := constants.ContentTypeForExt(filepath.Ext(path))
	if partType == "" || partType == constants.ContentTypePDF {
		return nil, "", fmt.Errorf("not an image: %s", filepath.Base(path))
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", partType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
