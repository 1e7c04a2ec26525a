package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/pipeline"
	"github.com/joseph-ayodele/docverify/internal/schema"
)

const (
	msgValid          = "Document is valid"
	msgMismatchFormat = common.MsgTypeMismatch + ", please provide %s in this section."

	// room for the form fields around the file part
	multipartOverhead = 1 << 20
)

// Verifier is the pipeline entry point the HTTP API drives.
type Verifier interface {
	Verify(ctx context.Context, req pipeline.VerifyRequest) (entity.ValidationReport, error)
}

// Pinger reports whether the audit store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	verifier       Verifier
	exporter       *ExportHandler // optional
	store          Pinger         // optional
	maxUploadBytes int64
	logger         *slog.Logger
}

type APIOption func(*API)

func WithExport(h *ExportHandler) APIOption { return func(a *API) { a.exporter = h } }

func WithHealthCheck(p Pinger) APIOption { return func(a *API) { a.store = p } }

func NewAPI(v Verifier, maxUploadBytes int64, logger *slog.Logger, opts ...APIOption) *API {
	if logger == nil {
		logger = slog.Default()
	}
	a := &API{verifier: v, maxUploadBytes: maxUploadBytes, logger: logger}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Handler returns the routed HTTP handler.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/verify", a.handleVerify)
	mux.HandleFunc("GET /v1/schemas", a.handleSchemas)
	mux.HandleFunc("GET /healthz", a.handleHealth)
	if a.exporter != nil {
		mux.Handle("GET /v1/runs.xlsx", a.exporter)
	}
	return a.withRequestLog(mux)
}

type verifyForm struct {
	Schema string `validate:"required,doctype"`
}

type fieldMessage struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type verifyResponse struct {
	Message  string         `json:"message,omitempty"`
	Messages []fieldMessage `json:"messages"`
	Entity   []any          `json:"entity,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := common.LoggerFromContext(ctx, a.logger)

	if a.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: common.MsgTooLarge})
			return
		}
		logger.Warn("http.verify.bad_form", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: common.MsgFileRequired})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form := verifyForm{Schema: strings.TrimSpace(r.FormValue("schema"))}
	if form.Schema == "" {
		form.Schema = strings.TrimSpace(r.FormValue("document_type"))
	}
	if err := common.ValidateStruct(form); err != nil {
		logger.Warn("http.verify.bad_schema", "schema", form.Schema, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: common.MsgSchemaRequired})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: common.MsgFileRequired})
		return
	}
	defer file.Close()

	report, err := a.verifier.Verify(ctx, pipeline.VerifyRequest{
		DocumentType: form.Schema,
		ContentType:  header.Header.Get("Content-Type"),
		Body:         file,
		Source:       filepath.Base(header.Filename),
	})
	if err != nil {
		status, body := errorBody(err, form.Schema)
		writeJSON(w, status, body)
		return
	}

	resp := verifyResponse{Messages: make([]fieldMessage, 0, len(report.Fields))}
	for _, f := range report.Fields {
		resp.Messages = append(resp.Messages, fieldMessage{Key: f.Key, Value: f.Value})
	}
	if report.Valid {
		resp.Message = msgValid
	} else {
		resp.Entity = report.Entity
	}
	writeJSON(w, http.StatusOK, resp)
}

// errorBody maps a pipeline error to its status and user-facing body.
// Internal failures never leak their cause.
func errorBody(err error, docType string) (int, errorResponse) {
	status := common.HTTPStatus(err)
	if errors.Is(err, common.ErrDocumentTypeMismatch) {
		canonical := docType
		if s, ok := schema.Lookup(docType); ok {
			canonical = s.Type
		}
		return status, errorResponse{Error: fmt.Sprintf(msgMismatchFormat, canonical)}
	}
	return status, errorResponse{Error: common.PublicMessage(err)}
}

type schemaListing struct {
	DocumentType string         `json:"document_type"`
	Fields       []schema.Field `json:"fields"`
}

func (a *API) handleSchemas(w http.ResponseWriter, _ *http.Request) {
	all := schema.All()
	out := make([]schemaListing, 0, len(all))
	for _, s := range all {
		out = append(out, schemaListing{DocumentType: s.Type, Fields: s.Fields})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.store.Ping(ctx); err != nil {
			a.logger.Warn("http.health.db_unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestLog assigns a request id and logs each request.
func (a *API) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		// the id ends up in scratch file names, so only uuids are honoured
		if id, err := uuid.Parse(strings.TrimSpace(r.Header.Get("X-Request-ID"))); err == nil {
			ctx = common.WithRequestID(ctx, id.String())
		}
		ctx, reqID := common.EnsureRequestID(ctx)
		logger := a.logger.With("request_id", reqID)
		ctx = common.WithLogger(ctx, logger)
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
