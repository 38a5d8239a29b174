// Package errors provides structured error types for hoshi.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the acquisition pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages naming the failing artifact and operation
//
// # Error Codes
//
// The acquisition taxonomy:
//   - NOT_FOUND: requested artifact absent from every constellation
//   - USER_ABORTED: confirmation declined
//   - TRANSFER_FAILED: network, HTTP or disk failure during a download
//   - ARCHIVE_IO / ARCHIVE_MALFORMED: extraction or creation failures
//   - REGISTRY_CORRUPT: unparseable registry file
//   - UNSUPPORTED_FORMAT: unrecognized archive extension
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "package %q not found in any constellation", name)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing package
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransferFailed, origErr, "download %s", name)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Resolution errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeUserAborted Code = "USER_ABORTED"

	// Transfer errors
	ErrCodeTransferFailed        Code = "TRANSFER_FAILED"
	ErrCodeHTTPStatus            Code = "HTTP_STATUS"
	ErrCodeProgressChannelClosed Code = "PROGRESS_CHANNEL_CLOSED"

	// Archive errors
	ErrCodeArchiveIO         Code = "ARCHIVE_IO"
	ErrCodeArchiveMalformed  Code = "ARCHIVE_MALFORMED"
	ErrCodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"

	// Registry errors
	ErrCodeRegistryCorrupt Code = "REGISTRY_CORRUPT"
	ErrCodeRegistryIO      Code = "REGISTRY_IO"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

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

// Is reports whether any *Error in err's chain carries the given code.
// A TRANSFER_FAILED error caused by an HTTP_STATUS error matches both codes.
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

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix, followed by
// the root cause when one exists.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + UserMessage(e.Cause)
}
