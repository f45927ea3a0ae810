// Package metrics exposes Prometheus instrumentation for the
// invocation harness and the secret store gateway.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Invocation metrics
	invocationsStartedTotal prometheus.Counter
	invocationsTotal        *prometheus.CounterVec
	invocationDuration      prometheus.Histogram
	timeoutsTotal           prometheus.Counter

	// Rotation metrics
	rotationStepsTotal *prometheus.CounterVec

	// Store metrics
	storeCooldownsTotal *prometheus.CounterVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// InvocationMetrics provides methods to record harness metrics.
// Recording is a no-op until InitMetrics has been called.
type InvocationMetrics struct{}

// NewInvocationMetrics creates a new InvocationMetrics instance.
func NewInvocationMetrics() *InvocationMetrics {
	return &InvocationMetrics{}
}

// InitMetrics initializes all Prometheus metrics.
// This should be called once at startup if Prometheus metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		invocationsStartedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rotatefn_invocations_started_total",
				Help: "Total number of invocations started",
			},
		)

		invocationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotatefn_invocations_total",
				Help: "Total number of invocations completed",
			},
			[]string{"result"},
		)

		invocationDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rotatefn_invocation_duration_seconds",
				Help:    "Duration of invocations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
			},
		)

		timeoutsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rotatefn_timeouts_total",
				Help: "Total number of invocations lost to the deadline watcher",
			},
		)

		rotationStepsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotatefn_rotation_steps_total",
				Help: "Total number of rotation steps dispatched",
			},
			[]string{"step", "status"},
		)

		storeCooldownsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotatefn_store_cooldowns_total",
				Help: "Total number of throttle cooldowns in the secret store gateway",
			},
			[]string{"operation"},
		)

		metricsRegistered = true
	})
}

// IsMetricsRegistered reports whether InitMetrics has run.
func IsMetricsRegistered() bool {
	return metricsRegistered
}

// RecordInvocationStarted records the start of an invocation.
func (m *InvocationMetrics) RecordInvocationStarted() {
	if !metricsRegistered || invocationsStartedTotal == nil {
		return
	}
	invocationsStartedTotal.Inc()
}

// RecordInvocationCompleted records a finished invocation.
// result is one of "success", "error" or "timeout".
func (m *InvocationMetrics) RecordInvocationCompleted(result string, durationSeconds float64) {
	if !metricsRegistered || invocationsTotal == nil {
		return
	}
	invocationsTotal.WithLabelValues(result).Inc()
	invocationDuration.Observe(durationSeconds)
	if result == "timeout" {
		timeoutsTotal.Inc()
	}
}

// RecordRotationStep records a rotation step dispatch outcome.
func (m *InvocationMetrics) RecordRotationStep(step, status string) {
	if !metricsRegistered || rotationStepsTotal == nil {
		return
	}
	rotationStepsTotal.WithLabelValues(step, status).Inc()
}

// RecordStoreCooldown records a throttle cooldown for a store operation.
func (m *InvocationMetrics) RecordStoreCooldown(operation string) {
	if !metricsRegistered || storeCooldownsTotal == nil {
		return
	}
	storeCooldownsTotal.WithLabelValues(operation).Inc()
}
