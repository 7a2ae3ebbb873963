package apperr

import (
	"errors"
	"fmt"
)

// Kind names one member of the closed error taxonomy.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindConfiguration      Kind = "ConfigurationError"
	KindContentPolicy      Kind = "ContentPolicyError"
	KindRateLimit          Kind = "RateLimitError"
	KindTimeout            Kind = "TimeoutError"
	KindProvider           Kind = "ProviderError"
	KindNotFound           Kind = "NotFoundError"
	KindStorageUnavailable Kind = "StorageUnavailableError"
)

// Error is the typed error every core layer returns to its caller.
type Error struct {
	Kind    Kind
	Message string
	Inner   error
}

func (e *Error) Error() string {
	if e.Inner != nil && e.Message == "" {
		return string(e.Kind) + ": " + e.Inner.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an inner error.
func Wrap(kind Kind, inner error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Inner: inner}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Configuration(format string, args ...interface{}) *Error {
	return New(KindConfiguration, format, args...)
}

// StorageUnavailable wraps a backend transport failure.
func StorageUnavailable(inner error, operation string) *Error {
	return Wrap(KindStorageUnavailable, inner, "storage unavailable during %s: %v", operation, inner)
}

// KindOf returns the kind of the first typed error in err's chain, or "" when untyped.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsTyped reports whether err already belongs to the taxonomy.
func IsTyped(err error) bool {
	return KindOf(err) != ""
}
