package book

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageCount aggregates outcome counts for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// BuildReport captures the operational metrics of one build run. Volatile
// fields (timestamps, durations, build id) live here and only here; the
// diagnostics document stays byte-stable across identical inputs.
type BuildReport struct {
	SchemaVersion int
	BuildID       string
	Trigger       string
	Outline       string
	Chapters      int
	Documents     int
	Edges         int
	Pages         int

	DiagnosticErrors   int
	DiagnosticWarnings int

	Start time.Time
	End   time.Time

	Errors   []error
	Warnings []error

	StageDurations  map[string]time.Duration
	StageErrorKinds map[string]string
	StageCounts     map[string]StageCount

	Outcome   BuildOutcome
	Published bool
	// SkipReason explains a short-circuited pipeline ("check_only",
	// "no_changes"). Empty when the full pipeline ran.
	SkipReason string
}

func newBuildReport(buildID, trigger, outline string) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         buildID,
		Trigger:         trigger,
		Outline:         outline,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[string]string),
		StageCounts:     make(map[string]StageCount),
	}
}

func (r *BuildReport) finish() { r.End = time.Now() }

// Duration returns the wall-clock build time.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("build=%s trigger=%s chapters=%d documents=%d edges=%d errors=%d warnings=%d duration=%s outcome=%s",
		r.BuildID, r.Trigger, r.Chapters, r.Documents, r.Edges,
		r.DiagnosticErrors, r.DiagnosticWarnings,
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// deriveOutcome sets Outcome from recorded errors, warnings and diagnostics.
func (r *BuildReport) deriveOutcome() {
	for _, e := range r.Errors {
		if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	if len(r.Errors) > 0 {
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 || r.DiagnosticErrors > 0 || r.DiagnosticWarnings > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Persist writes build-report.json and build-report.txt atomically into
// dir. Best effort; an error here never changes the build outcome.
func (r *BuildReport) Persist(dir string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}

	jb, err := json.MarshalIndent(r.sanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, "build-report.json"), append(jb, '\n')); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, "build-report.txt"), []byte(r.Summary()+"\n"))
}

// writeFileAtomic writes via a temp file and rename so readers never see a
// partial document.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// MarshalJSON renders the report with error values as plain strings.
func (r *BuildReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.sanitizedCopy())
}

// sanitizedCopy converts error fields to strings for JSON output.
func (r *BuildReport) sanitizedCopy() *buildReportSerializable {
	s := &buildReportSerializable{
		SchemaVersion:      r.SchemaVersion,
		BuildID:            r.BuildID,
		Trigger:            r.Trigger,
		Outline:            r.Outline,
		Chapters:           r.Chapters,
		Documents:          r.Documents,
		Edges:              r.Edges,
		Pages:              r.Pages,
		DiagnosticErrors:   r.DiagnosticErrors,
		DiagnosticWarnings: r.DiagnosticWarnings,
		Start:              r.Start,
		End:                r.End,
		Errors:             make([]string, len(r.Errors)),
		Warnings:           make([]string, len(r.Warnings)),
		StageDurations:     r.StageDurations,
		StageErrorKinds:    r.StageErrorKinds,
		StageCounts:        r.StageCounts,
		Outcome:            string(r.Outcome),
		Published:          r.Published,
		SkipReason:         r.SkipReason,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

type buildReportSerializable struct {
	SchemaVersion      int                      `json:"schema_version"`
	BuildID            string                   `json:"build_id"`
	Trigger            string                   `json:"trigger"`
	Outline            string                   `json:"outline"`
	Chapters           int                      `json:"chapters"`
	Documents          int                      `json:"documents"`
	Edges              int                      `json:"edges"`
	Pages              int                      `json:"pages"`
	DiagnosticErrors   int                      `json:"diagnostic_errors"`
	DiagnosticWarnings int                      `json:"diagnostic_warnings"`
	Start              time.Time                `json:"start"`
	End                time.Time                `json:"end"`
	Errors             []string                 `json:"errors"`
	Warnings           []string                 `json:"warnings"`
	StageDurations     map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds    map[string]string        `json:"stage_error_kinds"`
	StageCounts        map[string]StageCount    `json:"stage_counts"`
	Outcome            string                   `json:"outcome"`
	Published          bool                     `json:"published"`
	SkipReason         string                   `json:"skip_reason,omitempty"`
}
