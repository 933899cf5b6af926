package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stepDuration  *prom.HistogramVec
	cycleDuration prom.Histogram
	stepResults   *prom.CounterVec
	cycleOutcome  *prom.CounterVec
	pushResults   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitepub",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual publish steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"}),
		cycleDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitepub",
			Name:      "cycle_duration_seconds",
			Help:      "Total publish cycle duration",
			Buckets:   prom.DefBuckets,
		}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepub",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"step", "result"}),
		cycleOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepub",
			Name:      "cycle_outcomes_total",
			Help:      "Publish cycle outcomes by final status",
		}, []string{"outcome"}),
		pushResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepub",
			Name:      "push_results_total",
			Help:      "Push results per remote",
		}, []string{"remote", "result"}),
	}
	reg.MustRegister(pr.stepDuration, pr.cycleDuration, pr.stepResults, pr.cycleOutcome, pr.pushResults)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveCycleDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.cycleDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) IncCycleOutcome(outcome string) {
	if p == nil {
		return
	}
	p.cycleOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncPushResult(remote string, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.pushResults.WithLabelValues(remote, res).Inc()
}
