/*
reports.go - Spreadsheet download handlers

ENDPOINTS:
  GET /api/periods/download?month=Jan&year=2025   All periods of one month
  GET /api/accounts/{id}/full-report               One account with history

The workbook is rendered fully into memory before any header is written, so
a rendering failure still produces a JSON error instead of a truncated file.

SEE ALSO:
  - export/report.go: workbook layout
*/
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/deposit-tracker/deposit"
	"github.com/warp/deposit-tracker/export"
	"github.com/warp/deposit-tracker/metrics"
)

// DownloadMonth streams the monthly installments spreadsheet.
func (h *Handler) DownloadMonth(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthQuery(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid month or year", err)
		return
	}

	entries, err := h.Service.MonthlyEntries(r.Context(), month)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load installments", err)
		return
	}
	if len(entries) == 0 {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: fmt.Sprintf("No installments found for %s", month),
			Code:  "not_found",
		})
		return
	}

	report, err := export.MonthlyReport(month, entries)
	if err != nil {
		h.writeDomainError(w, r, "Failed to build report", err)
		return
	}
	h.sendReport(w, r, "monthly", report)
}

// AccountFullReport streams one account's full report.
func (h *Handler) AccountFullReport(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.Statement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to load account", err)
		return
	}

	report, err := export.AccountReport(st)
	if err != nil {
		h.writeDomainError(w, r, "Failed to build report", err)
		return
	}
	h.sendReport(w, r, "account", report)
}

func (h *Handler) sendReport(w http.ResponseWriter, r *http.Request, kind string, report *export.Report) {
	defer report.Close()

	var buf bytes.Buffer
	if err := report.Write(&buf); err != nil {
		h.writeDomainError(w, r, "Failed to write report", err)
		return
	}
	metrics.ReportsGenerated.WithLabelValues(kind).Inc()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("report write interrupted", zap.String("file", report.FileName), zap.Error(err))
	}
}

// parseMonthQuery reads ?month= (name or number) and ?year=.
func parseMonthQuery(r *http.Request) (deposit.MonthKey, error) {
	q := r.URL.Query()
	var fields []deposit.FieldError

	m, err := deposit.ParseMonth(strings.TrimSpace(q.Get("month")))
	if err != nil {
		fields = append(fields, deposit.FieldError{Field: "month", Message: err.Error()})
	}
	year, err := strconv.Atoi(strings.TrimSpace(q.Get("year")))
	if err != nil || year < 1 || year > 9999 {
		fields = append(fields, deposit.FieldError{Field: "year", Message: "must be a four-digit year"})
	}
	if len(fields) > 0 {
		return deposit.MonthKey{}, &deposit.ValidationError{Fields: fields}
	}
	return deposit.MonthKey{Year: year, Month: m}, nil
}
