// Package metrics exposes Prometheus collectors for optimistic operations and
// generations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricOperationsTotal     = "cutify_operations_total"
	MetricOperationDuration   = "cutify_operation_duration_seconds"
	MetricOperationsPending   = "cutify_operations_pending"
	MetricGenerationsTotal    = "cutify_generations_total"
	MetricGenerationDuration  = "cutify_generation_duration_seconds"
	MetricGenerationsInFlight = "cutify_generations_in_flight"
)

// Metrics contains Prometheus metrics for the daemon.
// All operations are thread-safe.
type Metrics struct {
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	operationsPending  prometheus.Gauge
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generationsRunning prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricOperationsTotal,
				Help: "Total number of optimistic operations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricOperationDuration,
				Help:    "Time from local apply to remote resolution in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
		operationsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricOperationsPending,
			Help: "Optimistic operations awaiting their remote call",
		}),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricGenerationsTotal,
				Help: "Total number of generations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricGenerationDuration,
				Help:    "Histogram of generation duration in seconds by kind",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"kind"},
		),
		generationsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricGenerationsInFlight,
			Help: "Generations currently running",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.operationsPending,
		m.generationsTotal,
		m.generationDuration,
		m.generationsRunning,
	}
}

// OperationSettled counts a resolved optimistic operation.
func (m *Metrics) OperationSettled(kind, outcome string, elapsed time.Duration) {
	m.operationsTotal.WithLabelValues(kind, outcome).Inc()
	m.operationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// OperationsPending sets the number of unresolved operations.
func (m *Metrics) OperationsPending(n int) {
	m.operationsPending.Set(float64(n))
}

// GenerationSettled counts a finished generation.
func (m *Metrics) GenerationSettled(kind, outcome string, elapsed time.Duration) {
	m.generationsTotal.WithLabelValues(kind, outcome).Inc()
	m.generationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// GenerationsInFlight sets the number of running generations.
func (m *Metrics) GenerationsInFlight(n int) {
	m.generationsRunning.Set(float64(n))
}
