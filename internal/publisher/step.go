package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
)

// StepName is a strongly-typed identifier for a cycle step. All canonical
// steps are declared as constants here for compile-time safety.
type StepName string

// Canonical step names, in execution order.
const (
	StepCleanOutput  StepName = "clean_output"
	StepRunGenerator StepName = "run_generator"
	StepSnapshot     StepName = "snapshot"
	StepPushRemotes  StepName = "push_remotes"
)

// Step is a discrete unit of work in the publish cycle.
type Step func(ctx context.Context, state *cycleState) error

// stepDef pairs a step name with its executing function.
type stepDef struct {
	Name StepName
	Fn   Step
}

// StepErrorKind enumerates structured step error categories.
type StepErrorKind string

const (
	StepErrorFatal    StepErrorKind = "fatal"    // Cycle must abort.
	StepErrorWarning  StepErrorKind = "warning"  // Non-fatal; record and continue.
	StepErrorCanceled StepErrorKind = "canceled" // Context cancellation.
)

// StepError is a structured error carrying category and underlying cause.
type StepError struct {
	Kind StepErrorKind
	Step StepName
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s step %s: %v", e.Kind, e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

func newFatalStepError(step StepName, err error) *StepError {
	return &StepError{Kind: StepErrorFatal, Step: step, Err: err}
}
func newWarnStepError(step StepName, err error) *StepError {
	return &StepError{Kind: StepErrorWarning, Step: step, Err: err}
}
func newCanceledStepError(step StepName, err error) *StepError {
	return &StepError{Kind: StepErrorCanceled, Step: step, Err: err}
}

// runSteps executes steps in order, recording timing and classification into
// the report, stopping on the first fatal or canceled error. Warnings are
// recorded and execution continues.
func runSteps(ctx context.Context, state *cycleState, steps []stepDef, recorder metrics.Recorder) error {
	for _, st := range steps {
		select {
		case <-ctx.Done():
			se := newCanceledStepError(st.Name, ctx.Err())
			state.Report.recordStep(st.Name, 0, se, recorder)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, state)
		dur := time.Since(t0)

		if err == nil {
			state.Report.recordStep(st.Name, dur, nil, recorder)
			slog.Debug("Step finished",
				logfields.Step(string(st.Name)),
				logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		var se *StepError
		if !errors.As(err, &se) {
			// Unknown errors are fatal by default.
			se = newFatalStepError(st.Name, err)
		}
		state.Report.recordStep(st.Name, dur, se, recorder)
		if se.Kind == StepErrorWarning {
			continue
		}
		return se
	}
	return nil
}
