// Package metrics defines observability hooks for publish cycles.
package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for cycle and step metrics.
// Implementations may forward to Prometheus etc. The NoopRecorder allows
// optional injection.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	ObserveCycleDuration(d time.Duration)
	IncStepResult(step string, result ResultLabel)
	IncCycleOutcome(outcome string) // outcome: success|noop|partial|failed|canceled
	IncPushResult(remote string, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration) {}
func (NoopRecorder) ObserveCycleDuration(time.Duration)        {}
func (NoopRecorder) IncStepResult(string, ResultLabel)         {}
func (NoopRecorder) IncCycleOutcome(string)                    {}
func (NoopRecorder) IncPushResult(string, bool)                {}
