// Package errors provides a lightweight structured error type (BookError)
// for category-based classification and exit-code mapping in the CLI.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a book build error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig  ErrorCategory = "config"
	CategoryOutline ErrorCategory = "outline"

	// Build stage errors
	CategoryContent  ErrorCategory = "content"
	CategoryGraph    ErrorCategory = "graph"
	CategoryValidate ErrorCategory = "validate"
	CategoryPublish  ErrorCategory = "publish"

	// Diagnostics carried an Error-severity finding; the build itself completed
	CategoryDiagnostics ErrorCategory = "diagnostics"

	// External system and infrastructure errors
	CategorySource     ErrorCategory = "source"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryDaemon     ErrorCategory = "daemon"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// BookError is a structured error with category, severity, and context
type BookError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BookError
type ContextFields map[string]any

// Error implements the error interface
func (e *BookError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BookError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BookError) WithContext(key string, value any) *BookError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BookError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BookError {
	return &BookError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BookError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BookError {
	return &BookError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error with default Error severity
func WrapError(err error, category ErrorCategory, message string) *BookError {
	return &BookError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// ConfigError creates a new configuration error
func ConfigError(message string) *BookError {
	return &BookError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// DiagnosticsError signals that a completed build carried Error-severity findings.
func DiagnosticsError(errorCount int) *BookError {
	return &BookError{
		Category: CategoryDiagnostics,
		Severity: SeverityError,
		Message:  fmt.Sprintf("build completed with %d error finding(s)", errorCount),
	}
}

// IsCategory checks if an error (or anything it wraps) belongs to a category.
func IsCategory(err error, category ErrorCategory) bool {
	var be *BookError
	if stdErrors.As(err, &be) {
		return be.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a BookError
func GetCategory(err error) ErrorCategory {
	var be *BookError
	if stdErrors.As(err, &be) {
		return be.Category
	}
	return CategoryInternal
}
