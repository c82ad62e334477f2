// Package apierror provides the error taxonomy shared by services and handlers
// and the envelope used for every 4xx/5xx HTTP response. Internal details
// (driver errors, stack traces) never leave this package's Status/Envelope path.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. Handlers map a Kind to an HTTP status.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindInsufficientStock Kind = "insufficient_stock"
	KindConflict          Kind = "conflict"
	KindForbidden         Kind = "forbidden"
	KindPersistence       Kind = "persistence"
)

// Error is the domain error returned by services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newf(KindInvalidState, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

// Persistence wraps a store failure. The wrapped error is logged, not returned
// to clients.
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Status maps a Kind to its HTTP status code. Unknown kinds are 500.
func Status(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidState, KindInsufficientStock:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Kind   Kind   `json:"kind,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Envelope converts err into the status code and body written to the client.
// Persistence failures and foreign errors collapse to a generic 500 message.
func Envelope(err error) (int, *APIError) {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindPersistence {
		return http.StatusInternalServerError, &APIError{Kind: KindPersistence, Detail: "internal server error"}
	}
	return Status(e.Kind), &APIError{Kind: e.Kind, Detail: e.Message}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Kind   Kind              `json:"kind"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Kind: KindValidation, Detail: "validation error", Fields: fields}
}
