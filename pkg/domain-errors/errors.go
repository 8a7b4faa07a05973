// Package domainerrors defines the coded error type shared by the pipeline
// packages and the HTTP layer.
//
// Every error carries a Code (machine readable, stable), a short Title meant
// for a user-facing dialog and a longer Message explaining the cause. Domain
// packages construct these errors; transport code translates Codes into
// status codes without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers and transports.
type Code string

const (
	// CodeValidation means required input was missing or malformed. Caller's fault.
	CodeValidation Code = "validation"
	// CodeBadRequest means the request itself could not be decoded.
	CodeBadRequest Code = "bad_request"
	// CodeGeometry means the uploaded drawing was malformed or held no usable shapes.
	CodeGeometry Code = "geometry"
	// CodeUnsupportedCoordinateSystem means the EPSG code has no registry equivalent.
	CodeUnsupportedCoordinateSystem Code = "unsupported_coordinate_system"
	// CodeOwnershipIntegrity means the registry returned units referencing owners
	// that were not part of the same response.
	CodeOwnershipIntegrity Code = "ownership_integrity"
	// CodeUpstream means the registry call itself failed.
	CodeUpstream Code = "upstream"
	// CodeInternal is the fallback for everything unexpected.
	CodeInternal Code = "internal"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Title   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	text := e.Message
	if e.Title != "" && e.Title != e.Message {
		text = e.Title + ": " + e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", text, e.Err)
	}
	return text
}

// Unwrap supports errors.Is/As through the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error whose title doubles as its message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Title: message, Message: message}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// WithTitle creates an error with a separate short title and explanation.
func WithTitle(code Code, title, message string) *Error {
	return &Error{Code: code, Title: title, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Title: message, Message: message, Err: err}
}

// From returns the first *Error in err's chain.
func From(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := From(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}
