package book

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveOutcome(t *testing.T) {
	tests := []struct {
		name string
		prep func(r *BuildReport)
		want BuildOutcome
	}{
		{"clean", func(r *BuildReport) {}, OutcomeSuccess},
		{"stage warning", func(r *BuildReport) {
			r.Warnings = append(r.Warnings, errors.New("partial"))
		}, OutcomeWarning},
		{"diagnostic errors", func(r *BuildReport) {
			r.DiagnosticErrors = 2
		}, OutcomeWarning},
		{"diagnostic warnings", func(r *BuildReport) {
			r.DiagnosticWarnings = 1
		}, OutcomeWarning},
		{"fatal error", func(r *BuildReport) {
			r.Errors = append(r.Errors, newFatalStageError("x", errors.New("boom")))
		}, OutcomeFailed},
		{"canceled wins over failed", func(r *BuildReport) {
			r.Errors = append(r.Errors, newCanceledStageError("x", errors.New("ctx")))
		}, OutcomeCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newBuildReport("id", "cli", "SUMMARY.md")
			tt.prep(r)
			r.deriveOutcome()
			assert.Equal(t, tt.want, r.Outcome)
		})
	}
}

func TestReportPersist(t *testing.T) {
	dir := t.TempDir()

	r := newBuildReport("build-1", "cli", "SUMMARY.md")
	r.Chapters = 3
	r.DiagnosticErrors = 1
	r.Errors = append(r.Errors, newFatalStageError("publish", errors.New("disk full")))
	require.NoError(t, r.Persist(dir))

	jb, err := os.ReadFile(filepath.Join(dir, "build-report.json"))
	require.NoError(t, err)

	var decoded struct {
		SchemaVersion int      `json:"schema_version"`
		BuildID       string   `json:"build_id"`
		Chapters      int      `json:"chapters"`
		Errors        []string `json:"errors"`
		Outcome       string   `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(jb, &decoded))
	assert.Equal(t, 1, decoded.SchemaVersion)
	assert.Equal(t, "build-1", decoded.BuildID)
	assert.Equal(t, 3, decoded.Chapters)
	require.Len(t, decoded.Errors, 1)
	assert.Contains(t, decoded.Errors[0], "disk full")
	assert.Equal(t, "failed", decoded.Outcome)

	txt, err := os.ReadFile(filepath.Join(dir, "build-report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(txt), "outcome=failed")

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestReportSummary(t *testing.T) {
	r := newBuildReport("b-9", "watch", "SUMMARY.md")
	r.Chapters = 5
	r.Documents = 4
	r.finish()
	r.deriveOutcome()

	s := r.Summary()
	assert.Contains(t, s, "build=b-9")
	assert.Contains(t, s, "trigger=watch")
	assert.Contains(t, s, "chapters=5")
	assert.Contains(t, s, "outcome=success")
}
