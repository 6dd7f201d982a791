// Package metrics holds the Prometheus collectors for the expense tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreMutations counts successful store mutations by operation.
var StoreMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "expenses",
	Subsystem: "store",
	Name:      "mutations_total",
	Help:      "Total expense store mutations by operation.",
}, []string{"operation"})

// StoreRecords tracks the current size of the expense collection.
var StoreRecords = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "expenses",
	Subsystem: "store",
	Name:      "records",
	Help:      "Number of expense records currently held.",
})

// PersistenceFailures counts dropped write-throughs and unreadable loads.
var PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "expenses",
	Subsystem: "storage",
	Name:      "failures_total",
	Help:      "Total persistence failures by operation (read or write).",
}, []string{"operation"})

// ValidationFailures counts rejected form submissions and store inputs.
var ValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "expenses",
	Subsystem: "form",
	Name:      "validation_failures_total",
	Help:      "Total rejected expense submissions.",
})

// Exports counts CSV exports by outcome (ok or empty).
var Exports = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "expenses",
	Subsystem: "export",
	Name:      "csv_total",
	Help:      "Total CSV export attempts by outcome.",
}, []string{"outcome"})

// HTTPRequests counts served requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "expenses",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route and status.",
}, []string{"route", "status"})

// HTTPLatency observes request duration by route pattern.
var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "expenses",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// CacheLookups counts render cache lookups by cache name and result (hit or miss).
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "expenses",
	Subsystem: "cache",
	Name:      "lookups_total",
	Help:      "Total render cache lookups by cache and result.",
}, []string{"cache", "result"})

// RateLimited counts requests rejected by the per-client limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "expenses",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Total requests rejected by the rate limiter.",
})

// SuspiciousRequests counts requests flagged by the security middleware, by
// reason. Flagged requests are still served.
var SuspiciousRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "expenses",
	Subsystem: "http",
	Name:      "suspicious_requests_total",
	Help:      "Total requests flagged as suspicious by reason.",
}, []string{"reason"})
