// Package observability holds the Prometheus instrumentation shared by the
// RPC layer and the daemon.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records per-operation activity across the ledger engines.
type LedgerMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Metrics returns the lazily-initialised ledger metrics registry.
func Metrics() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "ledger",
				Name:      "requests_total",
				Help:      "Total ledger operations segmented by module, operation, and outcome.",
			}, []string{"module", "operation", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "ledger",
				Name:      "errors_total",
				Help:      "Total ledger operation errors segmented by module, operation, and status code.",
			}, []string{"module", "operation", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stakevault",
				Subsystem: "ledger",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for ledger operation handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "operation"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "ledger",
				Name:      "events_total",
				Help:      "Total emitted ledger events segmented by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.requests,
			ledgerRegistry.errors,
			ledgerRegistry.latency,
			ledgerRegistry.events,
		)
	})
	return ledgerRegistry
}

// Observe records the outcome of a ledger operation. The status code should
// be the HTTP status ultimately written to the response.
func (m *LedgerMetrics) Observe(module, operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, operation, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, operation, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, operation).Observe(duration.Seconds())
}

// RecordEvent counts one emitted event by type.
func (m *LedgerMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.events.WithLabelValues(eventType).Inc()
}
