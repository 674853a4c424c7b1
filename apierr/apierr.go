package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(format string, args ...any) *Error {
	return New(http.StatusBadRequest, "bad_request", fmt.Errorf(format, args...))
}

func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, "unauthorized", fmt.Errorf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, "forbidden", fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, "not_found", fmt.Errorf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, "conflict", fmt.Errorf(format, args...))
}

func TooLarge(format string, args ...any) *Error {
	return New(http.StatusRequestEntityTooLarge, "too_large", fmt.Errorf(format, args...))
}

// Internal wraps an upstream failure. The message is passed through to the
// caller.
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// Status returns the HTTP status carried by err, or 500.
func Status(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status, e.Code
	}
	return http.StatusInternalServerError, "internal"
}
