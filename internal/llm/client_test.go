package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/schema"
)

func TestExtractSendsOrderedSchema(t *testing.T) {
	var gotBody, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process-data", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotReqID = r.Header.Get("X-Request-ID")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"result": "('proof_of_address', 'Jane', 'Pune')"}`))
	}))
	defer srv.Close()

	s, _ := schema.Lookup("proof_of_address")
	c := NewClient(Config{BaseURL: srv.URL}, nil)
	ctx := common.WithRequestID(context.Background(), "req-42")

	raw, err := c.Extract(ctx, "JANE\n\nPUNE", s)
	require.NoError(t, err)
	assert.Equal(t, `"('proof_of_address', 'Jane', 'Pune')"`, string(raw))
	assert.Equal(t, `{"raw_text":"JANE\n\nPUNE","schema":{"name":"String","address":"String"}}`, gotBody)
	assert.Equal(t, "req-42", gotReqID)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		timeout    time.Duration
		wantStatus int
	}{
		{"500", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "cuda oom", http.StatusInternalServerError)
		}, 0, http.StatusInternalServerError},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}, 0, http.StatusOK},
		{"missing result", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"output": []}`))
		}, 0, http.StatusOK},
		{"null result", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result": null}`))
		}, 0, http.StatusOK},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}, 50 * time.Millisecond, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s, _ := schema.Lookup("proof_of_class")
			c := NewClient(Config{BaseURL: srv.URL, Timeout: tt.timeout}, nil)
			_, err := c.Extract(context.Background(), "text", s)
			require.ErrorIs(t, err, common.ErrLLMService)
			status, _ := common.UpstreamDiagnostics(err)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}
