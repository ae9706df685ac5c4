// Package metrics defines the observability hooks for book builds. The
// default NoopRecorder keeps metrics optional: components take a Recorder
// and callers inject the Prometheus implementation only when a registry
// exists (the daemon). Implementations must tolerate nil receivers.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder receives build and stage measurements.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // success|warning|failed|canceled
	IncBuildTrigger(trigger string) // cli|watch|schedule|api
	SetChapters(n int)
	SetFindings(severity string, n int)
}

// NoopRecorder is the default Recorder; every method is a no-op.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) IncBuildTrigger(string)                     {}
func (NoopRecorder) SetChapters(int)                            {}
func (NoopRecorder) SetFindings(string, int)                    {}
