package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
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

// ---- Validation (VAL) ----

// Validation rejects a malformed request before any mutation begins.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidLine(reason string) *AppError {
	return New("VAL_002", fmt.Sprintf("Invalid settlement line: %s", reason), http.StatusBadRequest)
}

// ---- Balance (BAL) ----

func ErrInsufficientBalance(resource string) *AppError {
	return New("BAL_001", fmt.Sprintf("Insufficient %s balance", resource), http.StatusUnprocessableEntity)
}

func ErrInvalidAmount() *AppError {
	return New("BAL_002", "Invalid amount", http.StatusBadRequest)
}

// ---- Settlement & Workflow (POS) ----

func ErrNotFound(entity string) *AppError {
	return New("POS_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidStateTransition(from, to string) *AppError {
	return New("POS_002", fmt.Sprintf("Cannot transition transaction from %s to %s", from, to), http.StatusConflict)
}

func ErrDuplicateReference() *AppError {
	return New("POS_003", "Settlement reference already processed", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInvalidPIN() *AppError {
	return New("AUTH_003", "Approval PIN does not match", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an unexpected failure inside the atomic unit.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}
