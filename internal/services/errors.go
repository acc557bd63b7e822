package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies a failure at the service boundary.
type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindNotFound         Kind = "not_found"
	KindAccessDenied     Kind = "access_denied"
	KindInvalidCategory  Kind = "invalid_category"
	KindNotSecret        Kind = "not_secret"
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is the structured result every public operation fails with: a kind
// plus a human-readable message. Nothing leaves the services package as an
// unstructured failure.
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

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or empty when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// storeError maps a failed store call onto the taxonomy. Errors that already
// carry a kind pass through untouched; a missing row becomes NotFound;
// timeouts and connectivity failures become retryable StoreUnavailable.
func storeError(err error, message string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: message, Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Kind: KindStoreUnavailable, Message: "store call timed out", Err: err}
	default:
		return &Error{Kind: KindStoreUnavailable, Message: message, Err: err}
	}
}
