// Package apperr defines the error taxonomy shared by the API, the lifecycle
// service, and the queue consumers. Errors carry a kind instead of a type
// hierarchy; callers dispatch with KindOf or errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind int

const (
	// KindInternal is the default for unexpected store/transport failures.
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindExternalService
)

// Code values mirror the machine-readable codes exposed in API responses.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
)

// Error is the tagged error type used across the service.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error // wrapped cause, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to the status code the gateway should return.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports caller input that violates a field-level rule.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: resource + " not found"}
}

// Conflict reports a uniqueness violation.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Code: CodeConflict, Message: msg}
}

// Internal wraps an unexpected store or transport failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: msg, Err: err}
}

// ExternalService reports a failure of a named downstream dependency.
func ExternalService(service, msg string, err error) *Error {
	return &Error{
		Kind:    KindExternalService,
		Code:    CodeExternalService,
		Message: service + ": " + msg,
		Err:     err,
	}
}

// KindOf extracts the kind from err, defaulting to KindInternal for errors
// that did not originate here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
