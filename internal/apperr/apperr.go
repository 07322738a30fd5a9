// Package apperr defines the error taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of the operation that produced it.
type Kind string

const (
	KindValidation           Kind = "validation_error"
	KindInvalidReference     Kind = "invalid_reference"
	KindDuplicateKey         Kind = "duplicate_key"
	KindNotFound             Kind = "not_found"
	KindUnsupportedMediaType Kind = "unsupported_media_type"
	KindStorage              Kind = "storage_error"
)

// Error carries a Kind, a stable machine code and a client-safe message.
// The wrapped error is kept for logging and errors.Is/As.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by Kind so callers can test errors.Is(err, apperr.NotFoundKind).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return other.Code == "" && other.Kind == e.Kind
}

// Sentinels usable with errors.Is to test the kind of a failure.
var (
	ValidationKind           = &Error{Kind: KindValidation}
	InvalidReferenceKind     = &Error{Kind: KindInvalidReference}
	DuplicateKeyKind         = &Error{Kind: KindDuplicateKey}
	NotFoundKind             = &Error{Kind: KindNotFound}
	UnsupportedMediaTypeKind = &Error{Kind: KindUnsupportedMediaType}
	StorageKind              = &Error{Kind: KindStorage}
)

func newError(kind Kind, operation, reason, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Code:    fmt.Sprintf("%s.%s", operation, reason),
		Message: message,
		Err:     cause,
	}
}

// Validation reports a missing or malformed field.
func Validation(operation, reason, message string, cause error) *Error {
	return newError(KindValidation, operation, reason, message, cause)
}

// InvalidReference reports a foreign identifier that does not resolve.
func InvalidReference(operation, reason, message string, cause error) *Error {
	return newError(KindInvalidReference, operation, reason, message, cause)
}

// DuplicateKey reports a value that collides with an existing record.
func DuplicateKey(operation, reason, message string, cause error) *Error {
	return newError(KindDuplicateKey, operation, reason, message, cause)
}

// NotFound reports that no record exists for an identifier.
func NotFound(operation, reason, message string) *Error {
	return newError(KindNotFound, operation, reason, message, nil)
}

// UnsupportedMediaType reports a rejected upload.
func UnsupportedMediaType(operation, reason, message string) *Error {
	return newError(KindUnsupportedMediaType, operation, reason, message, nil)
}

// Storage wraps an unexpected store or filesystem failure.
func Storage(operation, reason string, cause error) *Error {
	return newError(KindStorage, operation, reason, "internal storage error", cause)
}

// From converts any error into an *Error, defaulting to a storage failure.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}
	return &Error{Kind: KindStorage, Code: "internal.unexpected", Message: "internal storage error", Err: err}
}

// HTTPStatus maps a Kind onto the response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidReference, KindDuplicateKey, KindUnsupportedMediaType:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
