package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error. The
// BookError may sit anywhere in the wrap chain (stage errors wrap it).
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var be *BookError
	if stdErrors.As(err, &be) {
		return a.exitCodeFromBookError(be)
	}

	return 1
}

// exitCodeFromBookError maps BookError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromBookError(err *BookError) int {
	switch err.Category {
	case CategoryDiagnostics:
		return 3 // Build completed, Error findings present
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryOutline:
		return 2 // Outline could not be parsed into any tree
	case CategorySource:
		return 8 // External source error
	case CategoryContent, CategoryGraph, CategoryValidate, CategoryPublish, CategoryFileSystem:
		return 11 // Build error
	case CategoryDaemon:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var be *BookError
	if stdErrors.As(err, &be) {
		return a.formatBookError(be)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatBookError formats a BookError for display.
func (a *CLIErrorAdapter) formatBookError(err *BookError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryOutline, CategoryDiagnostics:
		// User-facing input problems: show the detail, skip the taxonomy.
		if err.Cause != nil {
			return fmt.Sprintf("%s: %v", err.Message, err.Cause)
		}
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	var be *BookError
	if stdErrors.As(err, &be) {
		return be.Category == CategoryInternal ||
			be.Category == CategoryDaemon ||
			be.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	var be *BookError
	if stdErrors.As(err, &be) {
		level := a.slogLevelFromSeverity(be.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(be.Category)),
		}

		a.logger.LogAttrs(context.Background(), level, be.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts BookError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
