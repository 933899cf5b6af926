package publisher

import (
	"time"

	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
)

// Outcome is the final classification of a publish cycle.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNoop     Outcome = "noop"    // nothing changed since the last revision
	OutcomePartial  Outcome = "partial" // revision created, one or more remotes failed
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// PushResult is the outcome of pushing to one remote.
type PushResult struct {
	Remote   git.Remote
	Rejected bool // rejection (non-fast-forward) rather than transport failure
	Err      error
}

// Report accumulates the observable result of one publish cycle.
type Report struct {
	CycleID   string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   Outcome

	Revision string // empty when no revision was created
	Message  string

	StepDurations  map[StepName]time.Duration
	StepErrorKinds map[StepName]StepErrorKind
	Errors         []*StepError
	Warnings       []*StepError
	Pushes         []PushResult
}

func newReport(cycleID string, start time.Time) *Report {
	return &Report{
		CycleID:        cycleID,
		StartedAt:      start,
		StepDurations:  make(map[StepName]time.Duration),
		StepErrorKinds: make(map[StepName]StepErrorKind),
	}
}

// recordStep updates per-step bookkeeping and emits metrics.
func (r *Report) recordStep(step StepName, dur time.Duration, se *StepError, recorder metrics.Recorder) {
	r.StepDurations[step] = dur
	if recorder != nil {
		recorder.ObserveStepDuration(string(step), dur)
	}

	if se == nil {
		if recorder != nil {
			recorder.IncStepResult(string(step), metrics.ResultSuccess)
		}
		return
	}

	r.StepErrorKinds[step] = se.Kind
	switch se.Kind {
	case StepErrorWarning:
		r.Warnings = append(r.Warnings, se)
		if recorder != nil {
			recorder.IncStepResult(string(step), metrics.ResultWarning)
		}
	case StepErrorCanceled:
		r.Errors = append(r.Errors, se)
		if recorder != nil {
			recorder.IncStepResult(string(step), metrics.ResultCanceled)
		}
	default:
		r.Errors = append(r.Errors, se)
		if recorder != nil {
			recorder.IncStepResult(string(step), metrics.ResultFatal)
		}
	}
}

// FailedPushes returns the pushes that did not succeed.
func (r *Report) FailedPushes() []PushResult {
	var failed []PushResult
	for _, p := range r.Pushes {
		if p.Err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}
