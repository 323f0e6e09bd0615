// Package errors provides structured error types for persistbench.
// Every error carries a category and code so the driver can report which
// stage of a scenario failed before the run is aborted.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by the component that raised them.
type ErrorCategory string

const (
	ErrCategoryConfig     ErrorCategory = "CONFIG"
	ErrCategoryGeneration ErrorCategory = "GENERATION"
	ErrCategoryFilesystem ErrorCategory = "FILESYSTEM"
	ErrCategoryDatabase   ErrorCategory = "DATABASE"
	ErrCategoryScheduling ErrorCategory = "SCHEDULING"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Generation codes
	CodeDuplicateID    = "DUPLICATE_ID"
	CodeGenerateFailed = "GENERATE_FAILED"

	// Filesystem codes
	CodeWriteFailed   = "WRITE_FAILED"
	CodeReadFailed    = "READ_FAILED"
	CodeEncodeFailed  = "ENCODE_FAILED"
	CodeDecodeFailed  = "DECODE_FAILED"
	CodeCleanupFailed = "CLEANUP_FAILED"

	// Database codes
	CodeOpenFailed   = "OPEN_FAILED"
	CodeSchemaFailed = "SCHEMA_FAILED"
	CodeInsertFailed = "INSERT_FAILED"
	CodeQueryFailed  = "QUERY_FAILED"

	// Scheduling codes
	CodeTaskFailed  = "TASK_FAILED"
	CodeInterrupted = "INTERRUPTED"

	// Internal codes
	CodeUnexpected   = "UNEXPECTED"
	CodeVerifyFailed = "VERIFY_FAILED"
)

// BenchError is the structured error type used throughout the benchmark.
type BenchError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error returns a formatted error string.
func (e *BenchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BenchError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *BenchError) Is(target error) bool {
	var t *BenchError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new BenchError.
func New(category ErrorCategory, code, message string) *BenchError {
	return &BenchError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new BenchError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *BenchError {
	return &BenchError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *BenchError) WithDetails(details map[string]interface{}) *BenchError {
	cp := *e
	cp.Details = details
	return &cp
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCategory(err error) ErrorCategory {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCode(err error) string {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// GetDetails extracts the details map from an error chain.
func GetDetails(err error) map[string]interface{} {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Details
	}
	return nil
}

// Convenience constructors for common errors.

func NewConfigError(message string, cause error) *BenchError {
	return Wrap(ErrCategoryConfig, CodeInvalidConfig, message, cause)
}

func NewGenerationError(code, message string) *BenchError {
	return New(ErrCategoryGeneration, code, message)
}

func NewFilesystemError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryFilesystem, code, message, cause)
}

func NewDatabaseError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryDatabase, code, message, cause)
}

func NewSchedulingError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryScheduling, code, message, cause)
}

func NewInternalError(message string, cause error) *BenchError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
