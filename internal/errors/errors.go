// Package errors provides custom error types for the splitexpense API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so a wrapped or re-messaged copy still
// matches its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// IsValidation reports whether err rejects its input. Such errors never
// succeed on retry.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.StatusCode == http.StatusBadRequest
}

// IsNotFound reports whether err is a missing-resource error.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.StatusCode == http.StatusNotFound
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Split errors.
var (
	ErrInvalidAmount       = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
	ErrInvalidSplit        = &AppError{Code: "INVALID_SPLIT", Message: "Split percentages must add up to 100", StatusCode: http.StatusBadRequest}
	ErrInvalidPayment      = &AppError{Code: "INVALID_PAYMENT", Message: "Paid amounts must add up to the total amount", StatusCode: http.StatusBadRequest}
	ErrUnsupportedCurrency = &AppError{Code: "UNSUPPORTED_CURRENCY", Message: "Unsupported currency", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Budget errors.
var (
	ErrBudgetEntryNotFound = &AppError{Code: "BUDGET_ENTRY_NOT_FOUND", Message: "Budget entry not found", StatusCode: http.StatusNotFound}
	ErrInvalidBudgetType   = &AppError{Code: "INVALID_BUDGET_TYPE", Message: "Budget type must be Credit or Debit", StatusCode: http.StatusBadRequest}
	ErrBudgetNotAllowed    = &AppError{Code: "BUDGET_NOT_ALLOWED", Message: "Budget is not configured for this group", StatusCode: http.StatusBadRequest}
)

// Group errors.
var (
	ErrInvalidGroupSettings = &AppError{Code: "INVALID_GROUP_SETTINGS", Message: "Invalid group settings", StatusCode: http.StatusBadRequest}
)

// Scheduled action errors.
var (
	ErrScheduledActionNotFound = &AppError{Code: "SCHEDULED_ACTION_NOT_FOUND", Message: "Scheduled action not found", StatusCode: http.StatusNotFound}
	ErrInvalidActionData       = &AppError{Code: "INVALID_ACTION_DATA", Message: "Invalid scheduled action data", StatusCode: http.StatusBadRequest}
	ErrInvalidFrequency        = &AppError{Code: "INVALID_FREQUENCY", Message: "Frequency must be daily, weekly or monthly", StatusCode: http.StatusBadRequest}
	ErrInvalidActionType       = &AppError{Code: "INVALID_ACTION_TYPE", Message: "Action type must be add_expense or add_budget", StatusCode: http.StatusBadRequest}
)
