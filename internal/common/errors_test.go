package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"unsupported media", NewKindError(ErrUnsupportedMediaType, "INGEST", "bad type", nil), http.StatusUnsupportedMediaType},
		{"too large", NewKindError(ErrUploadTooLarge, "INGEST", "too big", nil), http.StatusRequestEntityTooLarge},
		{"unknown schema", NewKindError(ErrUnknownSchema, "REQUEST", "no schema", nil), http.StatusBadRequest},
		{"mismatch", NewKindError(ErrDocumentTypeMismatch, "PARSE", "mismatch", nil), http.StatusBadRequest},
		{"validation", NewAppError("VALIDATION_ERROR", "x", ErrValidation), http.StatusBadRequest},
		{"conversion", NewKindError(ErrConversion, "RASTER", "render", errors.New("exit 1")), http.StatusInternalServerError},
		{"ocr", NewUpstreamError(ErrOCRService, "OCR", "status", 502, "bad gateway", nil), http.StatusInternalServerError},
		{"llm wrapped", fmt.Errorf("stage: %w", NewKindError(ErrLLMService, "LLM", "x", nil)), http.StatusInternalServerError},
		{"parse", NewKindError(ErrResultParse, "PARSE", "arity", nil), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppErrorIsMatchesKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewKindError(ErrOCRService, "OCR", "request failed", cause)

	assert.ErrorIs(t, err, ErrOCRService)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrLLMService)
	assert.Equal(t, "OCR: request failed: dial tcp: refused", err.Error())
}

func TestUpstreamDiagnostics(t *testing.T) {
	err := WrapError(NewUpstreamError(ErrLLMService, "LLM", "non-2xx", 503, "overloaded", nil), "extract")
	code, detail := UpstreamDiagnostics(err)
	assert.Equal(t, 503, code)
	assert.Equal(t, "overloaded", detail)

	code, detail = UpstreamDiagnostics(errors.New("x"))
	assert.Zero(t, code)
	assert.Empty(t, detail)
}

func TestGRPCStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
		wantMsg  string
	}{
		{"mismatch", NewKindError(ErrDocumentTypeMismatch, "PARSE", `expected "aadhaar", extractor labelled "phd_cert"`, nil), codes.InvalidArgument, MsgTypeMismatch},
		{"unknown schema", WrapError(NewKindError(ErrUnknownSchema, "REQUEST", "no schema for \"x\"", nil), "verify"), codes.InvalidArgument, MsgSchemaRequired},
		{"unsupported", NewKindError(ErrUnsupportedMediaType, "INGEST", "text/plain", nil), codes.InvalidArgument, MsgUnsupportedType},
		{"too large", NewKindError(ErrUploadTooLarge, "INGEST", "limit 10485760", nil), codes.InvalidArgument, MsgTooLarge},
		{"empty", NewKindError(ErrInvalidInput, "INGEST", "empty upload", nil), codes.InvalidArgument, MsgFileRequired},
		{"upstream", NewUpstreamError(ErrOCRService, "OCR", "m", 500, "secret detail", nil), codes.Internal, MsgProcessing},
		{"plain", errors.New("dial tcp 10.0.0.1:80"), codes.Internal, MsgProcessing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(GRPCStatus(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
		})
	}

	assert.NoError(t, GRPCStatus(nil))
}
