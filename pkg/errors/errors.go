// Package errors provides structured error types for the Snapstack engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI and preview server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - ILLEGAL_STATE: an operation was attempted on a tree or connection
//     configuration that violates a documented precondition
//   - NOT_FOUND_*: a layout, registration or document does not exist
//   - INVALID_*: input validation failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeIllegalState, "block %q has no layout", id)
//	if errors.Is(err, errors.ErrCodeIllegalState) {
//	    // Handle the violated precondition
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "load workspace %s", id)
//
// Programming-error faults (invoking an abstract operation directly, or an
// internal invariant that can only break through a bug in this repository)
// are panics, not Error values. They are not meant to be caught by normal
// control flow.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Precondition violations detected by the layout engine. These indicate
	// the model was already inconsistent before the operation started; the
	// failed transaction leaves the layout tree untouched.
	ErrCodeIllegalState Code = "ILLEGAL_STATE"

	// Resource not found errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeLayoutNotFound    Code = "LAYOUT_NOT_FOUND"
	ErrCodeMeasurerNotFound  Code = "MEASURER_NOT_FOUND"
	ErrCodeFactoryNotFound   Code = "FACTORY_NOT_FOUND"
	ErrCodeWorkspaceNotFound Code = "WORKSPACE_NOT_FOUND"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Connection errors
	ErrCodeIncompatible Code = "INCOMPATIBLE_CONNECTION"

	// Storage and cache errors
	ErrCodeStorage Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsNotFound reports whether err carries any of the NOT_FOUND-family codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeLayoutNotFound, ErrCodeMeasurerNotFound,
		ErrCodeFactoryNotFound, ErrCodeWorkspaceNotFound:
		return true
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
