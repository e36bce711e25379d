package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, machine-readable error category surfaced to API clients.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindGuardFailed       Kind = "GUARD_FAILED"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindAlreadyConverted  Kind = "ALREADY_CONVERTED"
	KindNotEligible       Kind = "NOT_ELIGIBLE"
	KindDuplicateNumber   Kind = "DUPLICATE_NUMBER"
	KindNotFound          Kind = "NOT_FOUND"
	KindIntegrityMismatch Kind = "INTEGRITY_MISMATCH"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Error carries a kind plus a human-readable message. Field is set for
// validation errors to identify the offending input.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation builds a field-level validation error.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Field: field}
}

// KindOf extracts the kind from err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the HTTP status the handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindGuardFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindAlreadyConverted, KindNotEligible,
		KindInsufficientStock, KindDuplicateNumber:
		return http.StatusConflict
	case KindIntegrityMismatch:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
