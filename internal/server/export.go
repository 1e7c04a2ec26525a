package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/export"
	"github.com/joseph-ayodele/docverify/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves the audit log as an XLSX download.
type ExportHandler struct {
	svc    *export.Service
	logger *slog.Logger
}

func NewExportHandler(svc *export.Service, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{svc: svc, logger: logger}
}

// ServeHTTP accepts optional query parameters document_type, outcome,
// from and to (YYYY-MM-DD, inclusive) and limit.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRunFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	xlsx, err := h.svc.RunsXLSX(r.Context(), filter)
	if err != nil {
		h.logger.Error("export.xlsx.failed", "request_id", common.RequestIDFromContext(r.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed"})
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="runs_%s.xlsx"`, time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

func parseRunFilter(r *http.Request) (repository.RunFilter, error) {
	q := r.URL.Query()
	var filter repository.RunFilter

	if dt := strings.TrimSpace(q.Get("document_type")); dt != "" {
		canonical, ok := constants.CanonicalDocumentType(dt)
		if !ok {
			return filter, fmt.Errorf("unknown document_type %q", dt)
		}
		filter.DocumentType = string(canonical)
	}
	if o := strings.TrimSpace(q.Get("outcome")); o != "" {
		filter.Outcome = constants.RunOutcome(strings.ToUpper(o))
	}
	if fd := strings.TrimSpace(q.Get("from")); fd != "" {
		t, err := time.Parse("2006-01-02", fd)
		if err != nil {
			return filter, fmt.Errorf("from must be YYYY-MM-DD")
		}
		filter.From = &t
	}
	if td := strings.TrimSpace(q.Get("to")); td != "" {
		t, err := time.Parse("2006-01-02", td)
		if err != nil {
			return filter, fmt.Errorf("to must be YYYY-MM-DD")
		}
		// inclusive: the whole day
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	if l := strings.TrimSpace(q.Get("limit")); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
