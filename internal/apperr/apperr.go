// Package apperr defines the error taxonomy shared by the transport and
// the stores. Callers classify failures with errors.As and IsType rather
// than string matching.
package apperr

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType int

const (
	// Unknown is for unclassified errors.
	Unknown ErrorType = iota

	// Network represents a connectivity or timeout failure with no
	// HTTP response.
	Network

	// HTTP represents a non-2xx response; Status and Body are set.
	HTTP

	// Precondition represents an operation attempted without required
	// local state (no session, unknown task).
	Precondition

	// Validation represents client-side input validation failure.
	Validation

	// Storage represents a credential-store I/O failure.
	Storage

	// Config represents missing or invalid configuration.
	Config
)

// Error is the application error type. Status and Body are only
// meaningful for Type == HTTP.
type Error struct {
	Type    ErrorType
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given type.
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates an error of the given type around an underlying error.
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// NewHTTP creates an HTTP error carrying the response status and body.
func NewHTTP(status int, body, message string) *Error {
	return &Error{Type: HTTP, Message: message, Status: status, Body: body}
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Type == t
	}
	return false
}

// HTTPStatus returns the HTTP status carried by err, or 0 if err is not
// an HTTP error.
func HTTPStatus(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Type == HTTP {
		return ae.Status
	}
	return 0
}
