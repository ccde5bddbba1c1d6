// Package errors defines the structured error type used across htmlssg and a
// collector for the non-fatal diagnostics a build accumulates.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeSourceRoot      = "ERR_SOURCE_ROOT"
	ErrCodeOutputRoot      = "ERR_OUTPUT_ROOT"
	ErrCodeReadFile        = "ERR_READ_FILE"
	ErrCodeWriteFile       = "ERR_WRITE_FILE"
	ErrCodeInvalidData     = "ERR_INVALID_DATA"
	ErrCodeInvalidPagePath = "ERR_INVALID_PAGE_PATH"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeProjectExists   = "ERR_PROJECT_EXISTS"
	ErrCodeInternalError   = "ERR_INTERNAL"
)

// SiteError is a structured error type with context.
type SiteError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	FilePath string
}

// Error implements the error interface.
func (e *SiteError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a SiteError with the same type and code.
func (e *SiteError) Is(target error) bool {
	var t *SiteError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithPath attaches the file the error refers to.
func (e *SiteError) WithPath(path string) *SiteError {
	e.FilePath = path

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *SiteError {
	return &SiteError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error. I/O errors abort whatever operation
// produced them.
func NewIOError(code, message string, cause error) *SiteError {
	return &SiteError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *SiteError {
	return &SiteError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps err with additional context. A nil err yields nil.
func Wrap(err error, errType ErrorType, code, message string) *SiteError {
	if err == nil {
		return nil
	}

	var se *SiteError
	if errors.As(err, &se) {
		return &SiteError{
			Type:     errType,
			Code:     code,
			Message:  message,
			Cause:    se,
			FilePath: se.FilePath,
		}
	}

	return &SiteError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an error as an I/O error.
func WrapIO(err error, code, message string) *SiteError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// WrapBuild wraps a failure of the build step for path. Such failures are
// recorded as diagnostics rather than aborting the build.
func WrapBuild(err error, code, message, path string) *SiteError {
	se := Wrap(err, ErrorTypeBuild, code, message)
	if se != nil {
		se.FilePath = path
	}
	return se
}

// Detail splits err into the code of the SiteError it wraps and its message,
// for reports that carry the code and file separately. The code and file
// prefix is dropped only when err is itself a SiteError.
func Detail(err error) (code, message string) {
	var se *SiteError
	if !errors.As(err, &se) {
		return "", err.Error()
	}
	if error(se) != err {
		return se.Code, err.Error()
	}

	message = se.Message
	if se.Cause != nil {
		message += ": " + se.Cause.Error()
	}
	return se.Code, message
}
