package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors.
// Kind is one of the sentinels below and drives transport mapping.
// UpstreamStatus and Detail carry diagnostics from a downstream service;
// they are logged and never shown to callers.
type AppError struct {
	Code           string
	Message        string
	Cause          error
	Kind           error
	UpstreamStatus int
	Detail         string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match on the error kind as well as the cause chain.
func (e *AppError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrUploadTooLarge       = errors.New("upload too large")
	ErrUnknownSchema        = errors.New("unknown schema")
	ErrConversion           = errors.New("conversion failure")
	ErrOCRService           = errors.New("ocr service failure")
	ErrLLMService           = errors.New("llm service failure")
	ErrResultParse          = errors.New("result parse failure")
	ErrDocumentTypeMismatch = errors.New("document type mismatch")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewKindError builds an AppError tagged with one of the pipeline error kinds.
func NewKindError(kind error, code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Kind:    kind,
	}
}

// NewUpstreamError records a failed call to a downstream service.
func NewUpstreamError(kind error, code, message string, upstreamStatus int, detail string, cause error) *AppError {
	return &AppError{
		Code:           code,
		Message:        message,
		Cause:          cause,
		Kind:           kind,
		UpstreamStatus: upstreamStatus,
		Detail:         detail,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsClientError reports whether err is something the caller can correct.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrUnsupportedMediaType),
		errors.Is(err, ErrUploadTooLarge),
		errors.Is(err, ErrUnknownSchema),
		errors.Is(err, ErrDocumentTypeMismatch),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrValidation):
		return true
	}
	return false
}

// HTTPStatus maps an error to the status code returned to callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnknownSchema),
		errors.Is(err, ErrDocumentTypeMismatch),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Caller-facing messages. They never vary with the underlying cause.
const (
	MsgSchemaRequired  = "Schema is required"
	MsgFileRequired    = "File is required"
	MsgUnsupportedType = "Unsupported file type"
	MsgTooLarge        = "File too large"
	MsgTypeMismatch    = "Document type mismatch"
	MsgProcessing      = "Error processing the file"
)

// PublicMessage returns the fixed message shown to callers for err.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		return MsgUnsupportedType
	case errors.Is(err, ErrUploadTooLarge):
		return MsgTooLarge
	case errors.Is(err, ErrUnknownSchema):
		return MsgSchemaRequired
	case errors.Is(err, ErrDocumentTypeMismatch):
		return MsgTypeMismatch
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return MsgFileRequired
	default:
		return MsgProcessing
	}
}

// GRPCStatus converts err to a gRPC status error carrying only PublicMessage.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) {
		return InvalidArgumentError(PublicMessage(err))
	}
	return InternalError(PublicMessage(err))
}

// UpstreamDiagnostics extracts the upstream status and detail carried by err, if any.
func UpstreamDiagnostics(err error) (int, string) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.UpstreamStatus, ae.Detail
	}
	return 0, ""
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
