package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"retryable,omitempty"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err is an *AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ---- Not found (LEDGER_404) ----

func ErrNotFound(entity string) *AppError {
	return New("LEDGER_404", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Precondition violations (LEDGER) ----

func ErrInvalidAmount() *AppError {
	return New("LEDGER_001", "Amount must be greater than zero", http.StatusUnprocessableEntity)
}

func ErrTripWithoutDriver() *AppError {
	return New("LEDGER_002", "Trip has no driver assigned", http.StatusUnprocessableEntity)
}

func ErrTripNotCash() *AppError {
	return New("LEDGER_003", "Trip payment method is not cash", http.StatusUnprocessableEntity)
}

func ErrWalletNotOpened() *AppError {
	return New("LEDGER_004", "Driver has no wallet account to reconcile", http.StatusUnprocessableEntity)
}

func ErrInvalidCommissionRate(err error) *AppError {
	return Wrap("LEDGER_005", "Invalid commission rate", http.StatusUnprocessableEntity, err)
}

// ErrWalletLocked carries the wallet lock reason back to the caller of the online gate.
func ErrWalletLocked(reason string) *AppError {
	return New("LEDGER_006", reason, http.StatusForbidden)
}

// ---- Authorization (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_002", "Insufficient privileges for this operation", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// ErrConcurrencyConflict is returned once internal retries are exhausted. Callers may retry.
func ErrConcurrencyConflict(err error) *AppError {
	e := Wrap("SYS_002", "Concurrent update conflict, please retry", http.StatusServiceUnavailable, err)
	e.Retryable = true
	return e
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}

func ErrPayloadTooLarge(limit int64) *AppError {
	return New("REQ_002", fmt.Sprintf("Request body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
}
