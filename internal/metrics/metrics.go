package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the workflow instruments. A nil *Recorder is valid and records nothing.
type Recorder struct {
	runsTotal           *prometheus.CounterVec
	runDuration         *prometheus.HistogramVec
	toolCallsTotal      *prometheus.CounterVec
	generationsTotal    *prometheus.CounterVec
	classifierFallbacks prometheus.Counter
	degradationsTotal   *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_runs_total",
				Help: "Total number of workflow runs by intent and outcome",
			},
			[]string{"intent", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflow_run_duration_seconds",
				Help:    "Duration of workflow runs",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"intent"},
		),
		toolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_calls_total",
				Help: "Total number of remote tool calls",
			},
			[]string{"endpoint", "tool", "status"},
		),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_calls_total",
				Help: "Total number of language generation calls",
			},
			[]string{"status"},
		),
		classifierFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classifier_fallbacks_total",
				Help: "Classifications answered by the keyword fallback",
			},
		),
		degradationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_degradations_total",
				Help: "Recoverable failures absorbed by workflow runs",
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		reg.MustRegister(r.runsTotal, r.runDuration, r.toolCallsTotal, r.generationsTotal, r.classifierFallbacks, r.degradationsTotal)
	}
	return r
}

func (r *Recorder) ObserveRun(intent, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(intent, outcome).Inc()
	r.runDuration.WithLabelValues(intent).Observe(d.Seconds())
}

func (r *Recorder) ToolCall(endpoint, tool, status string) {
	if r == nil {
		return
	}
	r.toolCallsTotal.WithLabelValues(endpoint, tool, status).Inc()
}

func (r *Recorder) Generation(status string) {
	if r == nil {
		return
	}
	r.generationsTotal.WithLabelValues(status).Inc()
}

func (r *Recorder) ClassifierFallback() {
	if r == nil {
		return
	}
	r.classifierFallbacks.Inc()
}

func (r *Recorder) Degradation(kind string) {
	if r == nil {
		return
	}
	r.degradationsTotal.WithLabelValues(kind).Inc()
}
