// Package errors provides structured error types for plugtower.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the install pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror the failure taxonomy of a run:
//   - PROCESS_FAILURE: a git or post-install command exited non-zero
//   - DIRECTORY_MISSING: a package directory vanished (callers fall back to install)
//   - MANIFEST_UNREADABLE: the manifest was absent or corrupt (treated as empty)
//   - SPEC_PARSE_FAILURE: a declared package could not be parsed (skipped)
//   - ABORTED: the run was cancelled
//   - CYCLE_DETECTED: declared packages depend on each other in a loop
//
// Only CYCLE_DETECTED and INVALID_CONFIG are fatal for a run; the other codes
// are recorded per package and surfaced in the final report.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRepo, "invalid repository: %s", repo)
//	if errors.Is(err, errors.ErrCodeInvalidRepo) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeProcessFailure, origErr, "git clone %s", repo)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Per-package failures
	ErrCodeProcessFailure   Code = "PROCESS_FAILURE"
	ErrCodeDirectoryMissing Code = "DIRECTORY_MISSING"
	ErrCodeSpecParse        Code = "SPEC_PARSE_FAILURE"

	// Run-level conditions
	ErrCodeManifestUnreadable Code = "MANIFEST_UNREADABLE"
	ErrCodeAborted            Code = "ABORTED"
	ErrCodeCycleDetected      Code = "CYCLE_DETECTED"

	// Input validation errors
	ErrCodeInvalidRepo   Code = "INVALID_REPO"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Internal errors
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

// Is reports whether any *Error in err's chain carries code. A wrapped
// PROCESS_FAILURE inside an ABORTED error matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
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

// IsFatal reports whether err must stop a whole run rather than a single
// package.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeCycleDetected, ErrCodeInvalidConfig, ErrCodeInternal:
		return true
	}
	return false
}
