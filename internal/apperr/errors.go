// Package apperr defines the error kinds surfaced by the ticketing services
// and their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error carries a client-safe message next to the detail that only goes to logs.
type Error struct {
	Kind          Kind
	PublicError   string
	InternalError string
	Err           error
}

func (e *Error) Error() string {
	if e.InternalError != "" {
		return e.InternalError
	}
	return e.PublicError
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, PublicError: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, PublicError: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, PublicError: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, PublicError: msg}
}

// Internal hides err from clients behind a generic message.
func Internal(detail string, err error) *Error {
	internal := detail
	if err != nil {
		internal = detail + ": " + err.Error()
	}
	return &Error{Kind: KindInternal, PublicError: "internal server error", InternalError: internal, Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message that may be shown to API clients.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.PublicError != "" {
		return e.PublicError
	}
	return "internal server error"
}
