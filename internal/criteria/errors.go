package criteria

import (
	"errors"
	"fmt"
)

// Error reports a filter or query that cannot be built or rendered.
//
// Two categories exist:
//   - Invalid argument: a required value is missing or malformed. Raised at
//     construction or render time; the caller must fix the call.
//   - Unsupported: a filter variant was rendered by a backend that has no
//     equivalent for it (e.g. Coalesce in the search index). Always fatal to
//     the render call, never degraded.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Filter names the filter kind that raised the error, if any.
	Filter Kind

	// Backend is set for unsupported errors.
	Backend Backend
}

// ErrorCode categorizes criteria errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a missing or malformed filter value.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeUnsupported indicates a filter kind the target backend cannot express.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Backend != "" && e.Filter != "":
		return fmt.Sprintf("%s: %s (filter=%s, backend=%s)", e.Code, e.Message, e.Filter, e.Backend)
	case e.Filter != "":
		return fmt.Sprintf("%s: %s (filter=%s)", e.Code, e.Message, e.Filter)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidArgument reports whether err is an invalid argument error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInvalidArgument
	}
	return false
}

// IsUnsupported reports whether err is a capability error.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeUnsupported
	}
	return false
}

// NewInvalidArgument creates an Error for a missing or malformed value.
func NewInvalidArgument(kind Kind, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
		Filter:  kind,
	}
}

// NewUnsupported creates an Error for a filter kind the backend cannot render.
func NewUnsupported(kind Kind, backend Backend) *Error {
	return &Error{
		Code:    ErrCodeUnsupported,
		Message: fmt.Sprintf("%s not supported", backend.mode()),
		Filter:  kind,
		Backend: backend,
	}
}
