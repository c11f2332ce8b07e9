// Package errors provides custom error types and error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes.
const (
	// Input errors.
	CodeUsage      = "USAGE_ERROR"
	CodeFormat     = "FORMAT_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"

	// Processing errors.
	CodeInvariant = "INVARIANT_VIOLATION"
	CodeIO        = "IO_ERROR"
	CodeInternal  = "INTERNAL_ERROR"
)

// Process exit codes reported for each error class.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitFormat     = 3
	ExitIO         = 4
	ExitValidation = 1
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code for this error.
func (e *AppError) ExitCode() int {
	switch e.Code {
	case CodeUsage:
		return ExitUsage
	case CodeFormat:
		return ExitFormat
	case CodeIO, CodeNotFound:
		return ExitIO
	case CodeValidation:
		return ExitValidation
	default:
		return ExitFailure
	}
}

// ExitCode returns the process exit code for an arbitrary error,
// unwrapping to the innermost AppError when one is present.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return ExitFailure
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Convenience constructors.

// UsageError creates an error for bad command line arguments or misuse of
// an API that requires a specific call order.
func UsageError(message string) *AppError {
	return New(CodeUsage, message)
}

// FormatError creates an error for malformed input files.
func FormatError(message string, err error) *AppError {
	return Wrap(CodeFormat, message, err)
}

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// NotFoundError creates a not found error.
func NotFoundError(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// InvariantError creates an error for a violated data model invariant.
func InvariantError(message string) *AppError {
	return New(CodeInvariant, message)
}

// IOError creates an error for a failed file operation.
func IOError(message string, err error) *AppError {
	return Wrap(CodeIO, message, err)
}

// InternalError creates an internal error.
func InternalError(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}

// IsNotFound checks if error is a not found error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidation checks if error is a validation error.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsUsage checks if error is a usage error.
func IsUsage(err error) bool {
	return hasCode(err, CodeUsage)
}

// IsFormat checks if error is a format error.
func IsFormat(err error) bool {
	return hasCode(err, CodeFormat)
}

// IsInvariant checks if error is an invariant violation.
func IsInvariant(err error) bool {
	return hasCode(err, CodeInvariant)
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
