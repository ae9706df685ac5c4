package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestBookError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BookError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
		{
			name:     "outline error",
			err:      New(CategoryOutline, SeverityFatal, "inconsistent indentation at line 12"),
			expected: "outline (fatal): inconsistent indentation at line 12",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestBookError_WithContext(t *testing.T) {
	err := New(CategorySource, SeverityWarning, "clone failed").
		WithContext("url", "https://example.com/book.git").
		WithContext("branch", "main")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["url"] != "https://example.com/book.git" {
		t.Errorf("Context[url] = %v, want https://example.com/book.git", err.Context["url"])
	}

	if err.Context["branch"] != "main" {
		t.Errorf("Context[branch] = %v, want main", err.Context["branch"])
	}
}

func TestBookError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(cause, CategoryContent, SeverityError, "load failed")

	if !stdErrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var be *BookError
	if !stdErrors.As(err, &be) {
		t.Error("errors.As should extract *BookError")
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	sourceErr := New(CategorySource, SeverityWarning, "source error")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"matching category", configErr, CategoryConfig, true},
		{"non-matching category", sourceErr, CategoryConfig, false},
		{"standard error", standardErr, CategoryConfig, false},
		{"wrapped book error", fmt.Errorf("stage: %w", configErr), CategoryConfig, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCategory(test.err, test.category); got != test.expected {
				t.Errorf("IsCategory() = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"diagnostics error", DiagnosticsError(4), 3},
		{"config error", ConfigError("bad config"), 7},
		{"outline error", New(CategoryOutline, SeverityFatal, "unparseable"), 2},
		{"source error", New(CategorySource, SeverityError, "clone failed"), 8},
		{"publish error", New(CategoryPublish, SeverityError, "write failed"), 11},
		{"daemon error", New(CategoryDaemon, SeverityError, "watcher died"), 12},
		{"standard error", fmt.Errorf("plain"), 1},
		{"wrapped config error", fmt.Errorf("stage load_outline: %w", ConfigError("bad")), 7},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(test.err); got != test.expected {
				t.Errorf("ExitCodeFor() = %d, want %d", got, test.expected)
			}
		})
	}
}

func TestDiagnosticsError(t *testing.T) {
	err := DiagnosticsError(2)
	if err.Category != CategoryDiagnostics {
		t.Errorf("Category = %s, want %s", err.Category, CategoryDiagnostics)
	}
	if err.Message != "build completed with 2 error finding(s)" {
		t.Errorf("unexpected message: %s", err.Message)
	}
}
