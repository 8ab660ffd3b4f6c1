// Package apperror provides domain-specific error types for Costpilot.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// Errors from the identity provider and the remote cost API never reach a
// page as-is. They pass through Normalize (a single message string) or are
// wrapped in an AppError at the boundary where the call was made.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the user.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "not_found").
	Type string `json:"type"`

	// Message is a human-readable description safe for the user.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// UserMessage returns the message shown to the user.
func (e *AppError) UserMessage() string {
	return e.Message
}

// WithInternal returns a copy of the error carrying the given cause.
func (e *AppError) WithInternal(err error) *AppError {
	cp := *e
	cp.Internal = err
	return &cp
}

// --- Constructors for common error types ---

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Type: "not_found", Message: message}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: "bad_request", Message: message}
}

// NewUnauthorized creates a 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: "unauthorized", Message: message}
}

// NewAuthentication creates an error for credential or session failures
// reported by the identity provider. Unlike NewUnauthorized it does not
// trigger the login redirect; the form that caused it stays on screen.
func NewAuthentication(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: "authentication_failed", Message: message}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Type: "forbidden", Message: message}
}

// NewConflict creates a 409 Conflict error.
func NewConflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Type: "conflict", Message: message}
}

// NewInProgress creates a 409 error returned when a serialized session
// operation (login, register, logout, restore) is already running.
func NewInProgress() *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "operation_in_progress",
		Message: "Another sign-in request is still being processed. Please wait.",
	}
}

// NewValidation creates a 422 Unprocessable Entity error for validation failures.
func NewValidation(message string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Type: "validation_error", Message: message}
}

// NewUpstream creates a 502 error for failures of the remote cost API or
// the identity provider. The message is user-safe; the cause is kept for logs.
func NewUpstream(message string, err error) *AppError {
	return &AppError{Code: http.StatusBadGateway, Type: "upstream_error", Message: message, Internal: err}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the user only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// userMessager is implemented by boundary errors (API client, identity
// provider) that already carry a user-readable message.
type userMessager interface {
	UserMessage() string
}

// Normalize converts any error into a single user-readable message. It is
// applied at every network-call boundary so pages never inspect nested
// error fields themselves. fallback is used when the error carries nothing
// safe to show.
func Normalize(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	}

	return fallback
}

// SafeMessage returns the user-safe error message from an error. If the
// error is an AppError, returns its Message field. For any other error
// type, returns a generic message to prevent leaking internal details.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
