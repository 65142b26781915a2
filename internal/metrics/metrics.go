// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine's Prometheus collectors. One instance per
// process, registered on an injected registry so tests stay isolated.
type Metrics struct {
	TasksTotal       *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	ProviderAttempts *prometheus.CounterVec
	CircuitState     *prometheus.GaugeVec
	CacheRequests    *prometheus.CounterVec
	TasksInFlight    prometheus.Gauge
}

// New registers all collectors on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appforge",
			Subsystem: "engine",
			Name:      "tasks_total",
			Help:      "Tasks processed, by terminal status.",
		}, []string{"status"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "appforge",
			Subsystem: "engine",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage", "outcome"}),

		ProviderAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appforge",
			Subsystem: "engine",
			Name:      "provider_attempts_total",
			Help:      "Provider attempts, by tier and outcome.",
		}, []string{"tier", "outcome"}),

		CircuitState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "appforge",
			Subsystem: "engine",
			Name:      "circuit_state",
			Help:      "Circuit breaker state per tier (0 closed, 1 open, 2 half-open).",
		}, []string{"tier"}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appforge",
			Subsystem: "engine",
			Name:      "cache_requests_total",
			Help:      "Result cache lookups, by outcome.",
		}, []string{"outcome"}),

		TasksInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "appforge",
			Subsystem: "engine",
			Name:      "tasks_in_flight",
			Help:      "Tasks currently being processed.",
		}),
	}
}

// ObserveAttempt records one provider attempt
func (m *Metrics) ObserveAttempt(tier string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.ProviderAttempts.WithLabelValues(tier, outcome).Inc()
}

// ObserveStage records one stage execution
func (m *Metrics) ObserveStage(stage string, seconds float64, success bool) {
	outcome := "error"
	if success {
		outcome = "ok"
	}
	m.StageDuration.WithLabelValues(stage, outcome).Observe(seconds)
}

// ObserveCache records one cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheRequests.WithLabelValues(outcome).Inc()
}
