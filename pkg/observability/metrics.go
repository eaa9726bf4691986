package observability

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "spindle"

// Outcome labels.
const (
	OutcomeSuccess          = "success"
	OutcomeInputValidation  = "input_validation"
	OutcomeLogic            = "logic"
	OutcomeOutputValidation = "output_validation"
	OutcomeDependency       = "dependency"
	OutcomeCanceled         = "canceled"
	OutcomeError            = "error"
)

// Metrics holds the prometheus collectors for node and run execution.
type Metrics struct {
	// NodeCallsTotal counts node invocations.
	// Labels: node_type, outcome
	NodeCallsTotal *prometheus.CounterVec

	// NodeCallDurationSeconds measures node invocation latency.
	// Labels: node_type
	NodeCallDurationSeconds *prometheus.HistogramVec

	// RunsTotal counts finished workflow runs.
	// Labels: status (COMPLETED, FAILED, PAUSED, CANCELED)
	RunsTotal *prometheus.CounterVec

	// RunDurationSeconds measures workflow run duration.
	RunDurationSeconds prometheus.Histogram

	// ActiveRuns tracks runs currently executing.
	ActiveRuns prometheus.Gauge
}

// NewMetrics creates and registers the collectors on reg.
// A nil reg uses a private registry, which keeps tests isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		NodeCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "node",
				Name:      "calls_total",
				Help:      "Total node invocations by node type and outcome",
			},
			[]string{"node_type", "outcome"},
		),
		NodeCallDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "node",
				Name:      "call_duration_seconds",
				Help:      "Node invocation latency in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"node_type"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "workflow",
				Name:      "runs_total",
				Help:      "Total finished workflow runs by status",
			},
			[]string{"status"},
		),
		RunDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "workflow",
				Name:      "run_duration_seconds",
				Help:      "Workflow run duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ActiveRuns: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "workflow",
				Name:      "active_runs",
				Help:      "Workflow runs currently executing",
			},
		),
	}
}

// ObserveCall records one node invocation. It satisfies node.Observer.
func (m *Metrics) ObserveCall(nodeType string, err error, elapsed time.Duration) {
	m.NodeCallsTotal.WithLabelValues(nodeType, Outcome(err)).Inc()
	m.NodeCallDurationSeconds.WithLabelValues(nodeType).Observe(elapsed.Seconds())
}

// RunStarted marks a run as active.
func (m *Metrics) RunStarted() {
	m.ActiveRuns.Inc()
}

// RunFinished records the final status of a run.
func (m *Metrics) RunFinished(status domain.RunStatus, elapsed time.Duration) {
	m.ActiveRuns.Dec()
	m.RunsTotal.WithLabelValues(string(status)).Inc()
	m.RunDurationSeconds.Observe(elapsed.Seconds())
}

// Outcome classifies an invocation error into an outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, domain.ErrInputValidation):
		return OutcomeInputValidation
	case errors.Is(err, domain.ErrOutputValidation):
		return OutcomeOutputValidation
	case errors.Is(err, domain.ErrDependency):
		return OutcomeDependency
	case errors.Is(err, domain.ErrLogic):
		return OutcomeLogic
	default:
		return OutcomeError
	}
}
