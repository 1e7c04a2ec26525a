package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/schema"
)

type Config struct {
	BaseURL string        // e.g. http://localhost:8002
	Timeout time.Duration // per request, default 30s
}

// Client calls the structured-extraction service's /process-data endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger,
	}
}

type processDataRequest struct {
	RawText string        `json:"raw_text"`
	Schema  schema.Schema `json:"schema"`
}

type processDataResponse struct {
	Result json.RawMessage `json:"result"`
}

// Extract sends text and the ordered schema and returns the "result" member
// undecoded. It does not look at field values.
func (c *Client) Extract(ctx context.Context, text string, s schema.Schema) ([]byte, error) {
	reqID := common.RequestIDFromContext(ctx)
	start := time.Now()

	c.log.Info("llm.extract.start",
		"request_id", reqID,
		"document_type", s.Type,
		"fields", s.Len(),
		"text_len", len(text),
	)

	endpoint := c.baseURL + "/process-data"
	raw, status, err := SendJSON(ctx, c.http, endpoint, processDataRequest{RawText: text, Schema: s}, nil, c.log)
	if err != nil {
		detail := truncate(string(raw), 512)
		c.log.Error("llm.extract.http_error",
			"request_id", reqID,
			"status", status,
			"body", detail,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewUpstreamError(common.ErrLLMService, "LLM", "process-data failed", status, detail, err)
	}

	var out processDataResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, common.NewUpstreamError(common.ErrLLMService, "LLM", "decode response", status, truncate(string(raw), 512), err)
	}
	result := bytes.TrimSpace(out.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, common.NewUpstreamError(common.ErrLLMService, "LLM", "response missing result", status, truncate(string(raw), 512), nil)
	}

	c.log.Info("llm.extract.ok",
		"request_id", reqID,
		"document_type", s.Type,
		"result_bytes", len(result),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + fmt.Sprintf("...(%d more bytes)", len(s)-n)
}
