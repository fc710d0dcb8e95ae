/*
handlers.go - HTTP API handlers for the deposit tracker

PURPOSE:
  Exposes accounts and their monthly periods via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to deposit.Service.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                    List (optional ?type= filter)
    POST   /api/accounts                    Create
    GET    /api/accounts/{id}               Get with reconciliation
    PUT    /api/accounts/{id}               Partial update
    DELETE /api/accounts/{id}               Delete with its periods
    PATCH  /api/accounts/{id}/pay-all       Pay through current month
    PATCH  /api/accounts/{id}/unpay-all     Reset all to unpaid
    GET    /api/accounts/{id}/full-report   Spreadsheet (reports.go)

  Periods:
    POST   /api/periods/generate/{id}       Generate schedule for account
    GET    /api/periods/{id}                List periods of account
    PUT    /api/periods/{id}                Update one period
    PATCH  /api/periods/pay-all             Pay through current month, all accounts
    PATCH  /api/periods/unpay-all           Reset all periods
    GET    /api/periods/download            Monthly spreadsheet (reports.go)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (validator tags, then domain rules)
  3. Call deposit.Service
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed identifiers, invalid input
  - 404: Account or period not found
  - 500: Persistence failures (logged and sent to Sentry)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - reports.go: Spreadsheet downloads
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/deposit-tracker/deposit"
	"github.com/warp/deposit-tracker/metrics"
	"github.com/warp/deposit-tracker/observability"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *deposit.Service
	Logger  *zap.Logger

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given service.
func NewHandler(service *deposit.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:  service,
		Logger:   logger,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts, optionally filtered by ?type=.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	filter := deposit.AccountFilter{AccountType: strings.TrimSpace(r.URL.Query().Get("type"))}

	statements, err := h.Service.ListStatements(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(statements))
	for i, st := range statements {
		dtos[i] = toAccountDTO(st)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount creates a new account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	account, err := req.toAccount()
	if err != nil {
		h.writeDomainError(w, r, "Invalid account", err)
		return
	}

	created, err := h.Service.CreateAccount(r.Context(), account)
	if err != nil {
		h.writeDomainError(w, r, "Failed to create account", err)
		return
	}

	h.Logger.Info("account created", zap.String("account_id", created.ID))
	writeJSON(w, http.StatusCreated, toAccountDTO(deposit.Statement{
		Account:        created,
		Reconciliation: deposit.Reconcile(created.TotalInvestmentAmount, nil),
	}))
}

// GetAccount returns a single account with its reconciliation.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.Statement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(st))
}

// UpdateAccount applies a partial update.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := deposit.ValidateID(id); err != nil {
		h.writeDomainError(w, r, "Invalid account id", err)
		return
	}

	var req UpdateAccountRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.writeDomainError(w, r, "Invalid account", err)
		return
	}

	if _, err := h.Service.UpdateAccount(r.Context(), id, patch); err != nil {
		h.writeDomainError(w, r, "Failed to update account", err)
		return
	}

	st, err := h.Service.Statement(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(st))
}

// DeleteAccount deletes an account and its periods.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := h.Service.DeleteAccount(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to delete account", err)
		return
	}

	h.Logger.Info("account deleted", zap.String("account_id", id), zap.Int("periods_deleted", removed))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Account deleted",
		"periods_deleted": removed,
	})
}

// PayAccountThroughToday marks the account's periods up to the current month paid.
func (h *Handler) PayAccountThroughToday(w http.ResponseWriter, r *http.Request) {
	h.payThrough(w, r, chi.URLParam(r, "id"))
}

// UnpayAccount resets the account's periods to unpaid.
func (h *Handler) UnpayAccount(w http.ResponseWriter, r *http.Request) {
	h.unpayAll(w, r, chi.URLParam(r, "id"))
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// GeneratePeriods runs the schedule generator for an account.
func (h *Handler) GeneratePeriods(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.Service.GeneratePeriods(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to generate installments", err)
		return
	}
	metrics.PeriodsGenerated.Add(float64(result.Generated))

	writeJSON(w, http.StatusCreated, GenerateResponse{
		Message:   "Installments generated successfully",
		Count:     result.Generated,
		Generated: result.Generated,
		Skipped:   result.Skipped,
		Total:     result.Total,
	})
}

// ListPeriods returns the periods of the account in the URL.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListPeriods(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list installments", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTOs(periods))
}

// UpdatePeriod changes the amount and/or paid flag of the period in the URL.
func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := deposit.ValidateID(id); err != nil {
		h.writeDomainError(w, r, "Invalid installment id", err)
		return
	}

	var req UpdatePeriodRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	period, err := h.Service.UpdatePeriod(r.Context(), id, req.toPatch())
	if err != nil {
		h.writeDomainError(w, r, "Failed to update installment", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// PayAllThroughToday marks every account's periods up to the current month paid.
func (h *Handler) PayAllThroughToday(w http.ResponseWriter, r *http.Request) {
	h.payThrough(w, r, "")
}

// UnpayAll resets every period to unpaid.
func (h *Handler) UnpayAll(w http.ResponseWriter, r *http.Request) {
	h.unpayAll(w, r, "")
}

func (h *Handler) payThrough(w http.ResponseWriter, r *http.Request, accountID string) {
	asOf := deposit.MonthOf(h.Service.Now())

	n, err := h.Service.PayThrough(r.Context(), accountID, asOf)
	if err != nil {
		h.writeDomainError(w, r, "Failed to mark installments paid", err)
		return
	}
	writeJSON(w, http.StatusOK, BulkStatusResponse{
		Message: fmt.Sprintf("All installments through %s marked Paid", asOf),
		Updated: n,
	})
}

func (h *Handler) unpayAll(w http.ResponseWriter, r *http.Request, accountID string) {
	n, err := h.Service.UnpayAll(r.Context(), accountID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to reset installments", err)
		return
	}
	writeJSON(w, http.StatusOK, BulkStatusResponse{
		Message: "All installments reset to Unpaid",
		Updated: n,
	})
}

// =============================================================================
// HEALTH
// =============================================================================

// Health pings the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.Service.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
		return
	}
	metrics.ObserveStorePing(time.Now().Sub(start))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps service errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *deposit.ValidationError
	switch {
	case errors.Is(err, deposit.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Account not found", Code: "not_found"})
	case errors.Is(err, deposit.ErrPeriodNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Installment not found", Code: "not_found"})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "validation_failed", Details: verr.Fields})
	case deposit.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request", Details: err.Error()})
	default:
		h.Logger.Error(message,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		observability.CaptureErr(err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. On failure it writes a 400 and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "validation_failed",
				Details: fieldErrors(verrs),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func fieldErrors(verrs validator.ValidationErrors) []deposit.FieldError {
	fields := make([]deposit.FieldError, len(verrs))
	for i, fe := range verrs {
		msg := "failed " + fe.Tag()
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "max":
			msg = "must be at most " + fe.Param() + " characters"
		case "gte":
			msg = "must be >= " + fe.Param()
		}
		fields[i] = deposit.FieldError{Field: fe.Field(), Message: msg}
	}
	return fields
}
