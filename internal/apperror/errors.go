// Package apperror is the single structured error type every service
// returns. It carries an HTTP status code and a client-safe message;
// handlers map it onto the wire error envelope. Raw database or
// infrastructure errors are never sent to the client — they ride along in
// Internal for logging only.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the base error type for all domain errors.
type APIError struct {
	// StatusCode is the HTTP status (400, 401, 404, 409, 500).
	StatusCode int

	// Message is a human-readable description safe for the client.
	Message string

	// Errors holds optional per-field detail (validation failures).
	Errors []string

	// Internal holds the underlying error for logging. Never exposed.
	Internal error
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%d: %s (internal: %v)", e.StatusCode, e.Message, e.Internal)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Internal
}

func NewBadRequest(message string, details ...string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Message: message, Errors: details}
}

func NewUnauthorized(message string) *APIError {
	return &APIError{StatusCode: http.StatusUnauthorized, Message: message}
}

func NewNotFound(message string) *APIError {
	return &APIError{StatusCode: http.StatusNotFound, Message: message}
}

func NewConflict(message string) *APIError {
	return &APIError{StatusCode: http.StatusConflict, Message: message}
}

// NewInternal creates a 500 error. The real error is kept in Internal for
// logging but the client only sees the given message.
func NewInternal(message string, err error) *APIError {
	return &APIError{StatusCode: http.StatusInternalServerError, Message: message, Internal: err}
}

// From coerces any error into an *APIError. Non-APIError values become a
// generic 500 so internal details never leak onto the wire.
func From(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewInternal("something went wrong", err)
}
