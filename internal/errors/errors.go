// Package errors defines the coded errors services return and handlers
// render. Each Code maps to one HTTP status and appears verbatim in the
// error envelope, so the extension can branch on it:
//
//	if errors.Is(err, errors.ErrAuth) {
//	    // send the user to settings
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard library helpers, so callers need one import.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// Code is a machine-readable error code.
type Code string

const (
	CodeEmptyInput         Code = "EMPTY_INPUT"
	CodeAuth               Code = "AUTH"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeTransform          Code = "TRANSFORM"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeValidation         Code = "VALIDATION"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL"
)

var statuses = map[Code]int{
	CodeEmptyInput:         http.StatusBadRequest,
	CodeValidation:         http.StatusBadRequest,
	CodeAuth:               http.StatusUnauthorized,
	CodePermissionDenied:   http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeInvariantViolation: http.StatusConflict,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeTransform:          http.StatusBadGateway,
}

// HTTPStatus returns the response status for c. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if s, ok := statuses[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a coded error with a user-facing message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code, so the sentinels below
// work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPStatus returns the response status for the error's code.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// GetStatus lets handlers return domain errors to huma unchanged.
func (e *Error) GetStatus() int { return e.Code.HTTPStatus() }

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// Sentinels for errors.Is.
var (
	ErrEmptyInput         = &Error{Code: CodeEmptyInput, Message: "empty input"}
	ErrAuth               = &Error{Code: CodeAuth, Message: "missing credentials"}
	ErrPermissionDenied   = &Error{Code: CodePermissionDenied, Message: "permission denied"}
	ErrTransform          = &Error{Code: CodeTransform, Message: "transform failed"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvariantViolation = &Error{Code: CodeInvariantViolation, Message: "invariant violation"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// EmptyInput reports content that is blank after trimming.
func EmptyInput(msg string) *Error { return newError(CodeEmptyInput, msg) }

// Auth reports a missing or rejected API key.
func Auth(msg string) *Error { return newError(CodeAuth, msg) }

// PermissionDenied reports a blocked origin. reason is one of the gate's
// outcomes ("denied", "not_allowed", "invalid_url"); origin may be empty.
func PermissionDenied(msg, reason, origin string) *Error {
	details := map[string]string{"reason": reason}
	if origin != "" {
		details["origin"] = origin
	}
	e := newError(CodePermissionDenied, msg)
	e.Details = details
	return e
}

// Transform reports a failed chat-completion call.
func Transform(msg string, cause error) *Error {
	return newError(CodeTransform, msg).WithCause(cause)
}

func NotFoundf(format string, args ...any) *Error {
	return newError(CodeNotFound, fmt.Sprintf(format, args...))
}

func InvariantViolation(msg string) *Error { return newError(CodeInvariantViolation, msg) }

func Validation(msg string) *Error { return newError(CodeValidation, msg) }

func Validationf(format string, args ...any) *Error {
	return newError(CodeValidation, fmt.Sprintf(format, args...))
}

// ValidationWithDetails carries per-field messages.
func ValidationWithDetails(msg string, details any) *Error {
	e := newError(CodeValidation, msg)
	e.Details = details
	return e
}

// RateLimited reports a throttled request.
func RateLimited(msg string) *Error { return newError(CodeRateLimited, msg) }

// Wrap attaches a code and message to err.
func Wrap(err error, code Code, msg string) *Error {
	return newError(code, msg).WithCause(err)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
