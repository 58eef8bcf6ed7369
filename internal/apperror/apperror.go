package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error for transport mapping.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindUnexpected
)

// Error is the typed error every service operation returns across its
// boundary. Code is a stable machine-readable marker (e.g.
// "call_record_not_found"); Detail is human-readable.
type Error struct {
	Kind   Kind
	Code   string
	Detail string

	// wrapped is the underlying cause, if any. Kept for logs, never
	// serialized to clients.
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.wrapped }

// Wrap attaches an underlying cause and returns the error.
func (e *Error) Wrap(cause error) *Error {
	e.wrapped = cause
	return e
}

func Validation(code, detail string) *Error {
	if code == "" {
		code = "VALIDATION_ERROR"
	}
	if detail == "" {
		detail = "a validation error has occurred"
	}
	return &Error{Kind: KindValidation, Code: code, Detail: detail}
}

func NotFound(code, detail string) *Error {
	if code == "" {
		code = "NOT_FOUND"
	}
	if detail == "" {
		detail = "entity was not found"
	}
	return &Error{Kind: KindNotFound, Code: code, Detail: detail}
}

func Unexpected(code, detail string) *Error {
	if code == "" {
		code = "UNEXPECTED_ERROR"
	}
	if detail == "" {
		detail = "an unexpected error has occurred"
	}
	return &Error{Kind: KindUnexpected, Code: code, Detail: detail}
}

// From extracts the typed error from err, wrapping unknown errors as
// Unexpected so no raw error crosses into the HTTP layer.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Unexpected("", "").Wrap(err)
}

func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindNotFound
}

func IsValidation(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindValidation
}

// HTTPStatus maps an error to a response status code.
func HTTPStatus(err error) int {
	switch From(err).Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
