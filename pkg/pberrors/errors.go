// Package pberrors carries the closed set of error kinds PipeBuilder's
// core distinguishes, translated from the Rust source's ErrorImpl sum
// type into a Go struct with a Kind tag. A third-party typed-error
// library (github.com/pkg/errors, go-multierror, ...) appears nowhere
// in the retrieval pack used this way, so this stays on stdlib
// errors/fmt by deliberate choice.
package pberrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a PipeBuilder error into one of a closed set of
// cases every caller can handle explicitly.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindRegistry
	KindNotFound
	KindInvalidRequest
	KindUnavailable
	KindUpstreamRPC
	KindContentStore
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindRegistry:
		return "RegistryError"
	case KindNotFound:
		return "NotFound"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindUnavailable:
		return "Unavailable"
	case KindUpstreamRPC:
		return "UpstreamRpcError"
	case KindContentStore:
		return "ContentStoreError"
	case KindCancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}

// HTTPStatus maps a Kind to the HTTP status code the API surface
// responds with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a PipeBuilder error carrying a Kind plus a message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, defaulting to KindUnknown when
// err is nil or not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus is a convenience that maps any error through KindOf.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}

func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func InvalidRequestf(format string, args ...any) *Error {
	return New(KindInvalidRequest, fmt.Sprintf(format, args...))
}

func Unavailablef(format string, args ...any) *Error {
	return New(KindUnavailable, fmt.Sprintf(format, args...))
}
