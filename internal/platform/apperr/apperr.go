// Package apperr defines the error kinds surfaced by the scheduling core and
// their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies a failure for the boundary layer.
type Kind int

const (
	Internal Kind = iota
	NotFound
	Unauthorized
	Conflict
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NOT_FOUND"
	case Unauthorized:
		return "UNAUTHORIZED"
	case Conflict:
		return "CONFLICT"
	case InvalidInput:
		return "INVALID_INPUT"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case InvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind, a short user-facing message and an optional cause.
// Only Message is ever shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, apperr.ErrNotFound) works
// for any not-found failure.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrNotFound     = &Error{Kind: NotFound}
	ErrUnauthorized = &Error{Kind: Unauthorized}
	ErrConflict     = &Error{Kind: Conflict}
	ErrInvalidInput = &Error{Kind: InvalidInput}
	ErrInternal     = &Error{Kind: Internal}
)

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NewNotFound(msg string) *Error     { return New(NotFound, msg) }
func NewUnauthorized(msg string) *Error { return New(Unauthorized, msg) }
func NewConflict(msg string) *Error     { return New(Conflict, msg) }
func NewInvalidInput(msg string) *Error { return New(InvalidInput, msg) }

// NewInternal wraps an unexpected store or token failure.
func NewInternal(msg string, err error) *Error { return Wrap(Internal, msg, err) }

// KindOf reports the kind of err. Errors outside the taxonomy are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// ToHTTP converts err to an echo HTTP error carrying only the short message.
func ToHTTP(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if msg == "" {
			msg = http.StatusText(e.Kind.HTTPStatus())
		}
		return echo.NewHTTPError(e.Kind.HTTPStatus(), msg).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
