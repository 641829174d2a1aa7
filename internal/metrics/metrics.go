// Package metrics exposes store activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ezkeymap"

// Operation results
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics owns a private registry so tests and multiple stores do not
// collide on the global one. A nil *Metrics records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	conflicts  *prometheus.CounterVec
	shortcuts  prometheus.Gauge
	writes     prometheus.Summary
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store operations by kind and result.",
		}, []string{"op", "result"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_detected_total",
			Help:      "Conflicts found during add and update, by type.",
		}, []string{"type"}),
		shortcuts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shortcuts",
			Help:      "Number of shortcuts in the collection.",
		}),
		writes: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "storage_write_seconds",
			Help:       "Latency of snapshot writes.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
	}

	m.registry.MustRegister(m.operations, m.conflicts, m.shortcuts, m.writes)
	return m
}

// Operation counts one store operation
func (m *Metrics) Operation(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// Conflict counts one detected conflict
func (m *Metrics) Conflict(conflictType string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(conflictType).Inc()
}

// SetShortcuts records the collection size
func (m *Metrics) SetShortcuts(n int) {
	if m == nil {
		return
	}
	m.shortcuts.Set(float64(n))
}

// ObserveWrite records how long a snapshot write took
func (m *Metrics) ObserveWrite(d time.Duration) {
	if m == nil {
		return
	}
	m.writes.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
