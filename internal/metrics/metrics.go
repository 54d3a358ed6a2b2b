// Package metrics exposes Prometheus collectors describing a harness run:
// requests issued against the Users API, their latency, soft assertion
// failures and cleanup failures.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "usersqa"

// Metrics holds the collectors of one run. A nil *Metrics is valid and
// records nothing, so components can take it as an optional dependency.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	softFailures    *prometheus.CounterVec
	cleanupFailures prometheus.Counter
	tracked         prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests sent to the Users API by method and status code.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the Users API.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		softFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_assertion_failures_total",
			Help:      "Soft assertion failures recorded per scenario.",
		}, []string{"scenario"}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_failures_total",
			Help:      "Tracked resources whose deletion failed or errored.",
		}),
		tracked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracked_resources_total",
			Help:      "Resources recorded for cleanup.",
		}),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.softFailures, m.cleanupFailures, m.tracked)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one completed request. Transport failures are
// recorded with status "error".
func (m *Metrics) ObserveRequest(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.requestDuration.WithLabelValues(method).Observe(seconds)
}

// SoftFailures adds n soft failures for scenario.
func (m *Metrics) SoftFailures(scenario string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.softFailures.WithLabelValues(scenario).Add(float64(n))
}

// CleanupFailed records one failed deletion.
func (m *Metrics) CleanupFailed() {
	if m == nil {
		return
	}
	m.cleanupFailures.Inc()
}

// Tracked records one resource added to a tracker.
func (m *Metrics) Tracked() {
	if m == nil {
		return
	}
	m.tracked.Inc()
}

// WriteTextfile writes the current values in the Prometheus text format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
