package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jasongannon/api-docs-book/internal/metrics"
)

// Stage is a discrete unit of work in a book build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and classification
// per stage, and stops on the first fatal or canceled error. Warnings are
// recorded and the run continues.
func runStages(ctx context.Context, bs *BuildState, rec metrics.Recorder, stages []namedStage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.StageErrorKinds[st.name] = string(se.Kind)
			rec.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.Timings[st.name] = dur
		bs.Report.StageDurations[st.name] = dur
		rec.ObserveStageDuration(st.name, dur)

		if err == nil {
			sc := bs.Report.StageCounts[st.name]
			sc.Success++
			bs.Report.StageCounts[st.name] = sc
			rec.IncStageResult(st.name, metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Unknown errors are fatal by default.
			se = newFatalStageError(st.name, err)
		}
		bs.Report.StageErrorKinds[st.name] = string(se.Kind)
		sc := bs.Report.StageCounts[st.name]

		switch se.Kind {
		case StageErrorWarning:
			sc.Warning++
			bs.Report.StageCounts[st.name] = sc
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			rec.IncStageResult(st.name, metrics.ResultWarning)
			continue
		case StageErrorCanceled:
			sc.Canceled++
			bs.Report.StageCounts[st.name] = sc
			bs.Report.Errors = append(bs.Report.Errors, se)
			rec.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
			sc.Fatal++
			bs.Report.StageCounts[st.name] = sc
			bs.Report.Errors = append(bs.Report.Errors, se)
			rec.IncStageResult(st.name, metrics.ResultFatal)
			return se
		}
	}
	return nil
}
