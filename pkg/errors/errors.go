// Package errors provides structured error types for nunet.
//
// Every rejection produced by the design core carries a machine-readable
// [Code] so that outer surfaces (CLI, HTTP API, edit scripts) can map it to
// an exit status, an HTTP status or a notification without parsing text.
//
// # Error Codes
//
// Domain codes mirror the failure taxonomy of the design graph:
//   - POSITION_OCCUPIED / POSITION_EMPTY: a grid cell in the wrong state
//   - INVALID_FIELD: an upstream field marked invalid reached a mutation
//   - NAME_COLLISION: an input/output name is already in use
//   - TOPOLOGY_VIOLATION: self-loop, same-layer, duplicate or misdirected synapse
//   - RANGE_INVERSION: synapse initialisation min above max
//   - DESIGN_INVALID: whole-graph validity failed at generation time
//   - PERSISTENCE_FAILURE: a save/load collaborator reported an error
//
// # Usage
//
//	err := errors.New(errors.ErrCodePositionOccupied, "position %s is already taken", pos)
//	if errors.Is(err, errors.ErrCodePositionOccupied) {
//	    // Handle occupied cell
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodePersistence, origErr, "save %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Design graph errors
	ErrCodePositionOccupied Code = "POSITION_OCCUPIED"
	ErrCodePositionEmpty    Code = "POSITION_EMPTY"
	ErrCodeInvalidField     Code = "INVALID_FIELD"
	ErrCodeNameCollision    Code = "NAME_COLLISION"
	ErrCodeTopology         Code = "TOPOLOGY_VIOLATION"
	ErrCodeRangeInversion   Code = "RANGE_INVERSION"
	ErrCodeDesignInvalid    Code = "DESIGN_INVALID"

	// Collaborator errors
	ErrCodePersistence Code = "PERSISTENCE_FAILURE"

	// Outer surface errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
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
// For *Error types, returns the message without the code prefix, followed
// by the user message of its cause. For other errors, returns the error
// string as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch {
	case e.Cause == nil:
		return e.Message
	case e.Message == "":
		return UserMessage(e.Cause)
	}
	return e.Message + ": " + UserMessage(e.Cause)
}
