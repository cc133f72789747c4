// Package errors provides structured error types for layerkit.
//
// Every failure that crosses a package boundary is an [*Error] carrying a
// machine-readable [Code]. The CLI and the HTTP API map codes to exit
// statuses and response codes; library callers branch on them with [Is].
//
// # Error Codes
//
//   - INVALID_*: malformed input graphs or configuration values
//   - UNSUPPORTED_GRAPH: a graph the selected algorithm cannot process, such
//     as a cyclic component handed to network simplex or a node without a
//     model order handed to a model-order layerer
//   - CANCELED: the caller's context was canceled between layout phases
//   - INTERNAL_ERROR: a broken invariant inside layerkit itself
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedGraph, "node %q has no model order", id)
//	if errors.Is(err, errors.ErrCodeUnsupportedGraph) {
//	    // report and stop, no partial layering exists
//	}
//
//	err = errors.Wrap(errors.ErrCodeInvalidInput, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Algorithm preconditions
	ErrCodeUnsupportedGraph Code = "UNSUPPORTED_GRAPH"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Execution errors
	ErrCodeCanceled Code = "CANCELED"
	ErrCodeTimeout  Code = "TIMEOUT"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Unsupported is shorthand for an UNSUPPORTED_GRAPH error.
func Unsupported(format string, args ...any) *Error {
	return New(ErrCodeUnsupportedGraph, format, args...)
}

// HTTPStatus maps an error code to the HTTP status the API responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidFormat, ErrCodeInvalidPath:
		return 400
	case ErrCodeNotFound, ErrCodeFileNotFound:
		return 404
	case ErrCodeUnsupportedGraph:
		return 422
	case ErrCodeCanceled:
		return 499
	case ErrCodeTimeout:
		return 504
	default:
		return 500
	}
}
