/*
errors.go - Error types for the deposit domain

ERROR CATEGORIES:
  1. Validation errors - malformed identifiers, missing or invalid fields
  2. Not-found errors  - account or period absent
  3. Everything else   - persistence failures, wrapped by the store

USAGE:
  Handlers map errors to HTTP status with the helpers at the bottom:

    switch {
    case deposit.IsNotFound(err):    // 404
    case deposit.IsClientError(err): // 400
    default:                          // 500
    }
*/
package deposit

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPeriodNotFound is returned when a referenced period doesn't exist.
	ErrPeriodNotFound = errors.New("period not found")

	// ErrInvalidID is returned for identifiers that are not UUIDs.
	ErrInvalidID = errors.New("invalid identifier")

	// ErrInvalidDateRange is returned when the close date precedes the open date.
	ErrInvalidDateRange = errors.New("invalid date range: close date before open date")

	// ErrValidation is the sentinel wrapped by ValidationError.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrPeriodNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrValidation)
}
