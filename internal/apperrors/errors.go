// Package apperrors defines the error taxonomy the HTTP surface exposes.
// Services return these; handlers render them as the `{type, errorMsgs}`
// envelope without inspecting error strings.
package apperrors

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota
	KindConflict
	KindUnauthorized
	KindNotFound
	KindRateLimited
	KindInternal
)

// Error carries a taxonomy kind and either a single message or a
// field-scoped message map. Conflict and validation failures always report
// every offending field at once.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	for _, msg := range e.Fields {
		return msg
	}
	return "unknown error"
}

// Type is the envelope discriminator the client switches on.
func (e *Error) Type() string {
	switch e.Kind {
	case KindValidation:
		return "Bad Request Error"
	case KindConflict:
		return "Conflict Error"
	case KindUnauthorized:
		return "Unauthorized Error"
	case KindNotFound:
		return "Resource Not Found Error"
	case KindRateLimited:
		return "Exceed Requests Error"
	default:
		return "Internal Server Error"
	}
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error  { return &Error{Kind: KindValidation, Msg: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func NotFound(msg string) *Error    { return &Error{Kind: KindNotFound, Msg: msg} }
func RateLimited(msg string) *Error { return &Error{Kind: KindRateLimited, Msg: msg} }

// Internal returns the generic 500 error. Underlying store or transport
// detail never reaches the client; callers log it server-side instead.
func Internal() *Error { return &Error{Kind: KindInternal, Msg: "Internal Server Error"} }

func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

func ConflictFields(fields map[string]string) *Error {
	return &Error{Kind: KindConflict, Fields: fields}
}

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Msg: msg} }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// From extracts the *Error from err, or wraps unknown errors as Internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal()
}
