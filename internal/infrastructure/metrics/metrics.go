// Package metrics registers the engine's Prometheus metrics with the
// default registry. Import for side effects from the process entry point.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Engine metrics - using explicit registration
var (
	// Capture decisions per context tag and outcome
	CapturesTotal *prometheus.CounterVec

	// Encoded artifact sizes
	CaptureBytes prometheus.Histogram

	// Retention eviction outcomes
	EvictionsTotal        prometheus.Counter
	EvictionFailuresTotal prometheus.Counter

	// Latest timeout estimate per operation key
	TimeoutEstimate *prometheus.GaugeVec

	// Latency samples recorded per operation key
	LatencySamplesTotal *prometheus.CounterVec

	// Provider attempt outcomes
	ProviderOutcomesTotal *prometheus.CounterVec
)

// init creates and registers all metrics with the default registry
func init() {
	CapturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cua",
			Subsystem: "engine",
			Name:      "captures_total",
			Help:      "Capture store decisions by context and outcome",
		},
		[]string{"context", "status"},
	)

	CaptureBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cua",
			Subsystem: "engine",
			Name:      "capture_bytes",
			Help:      "Encoded size of persisted artifacts in bytes",
			Buckets:   prometheus.ExponentialBuckets(4096, 4, 8),
		},
	)

	EvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cua",
			Subsystem: "engine",
			Name:      "evictions_total",
			Help:      "Artifacts deleted by the retention cap",
		},
	)

	EvictionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cua",
			Subsystem: "engine",
			Name:      "eviction_failures_total",
			Help:      "Artifact deletions that failed and were skipped",
		},
	)

	TimeoutEstimate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cua",
			Subsystem: "engine",
			Name:      "timeout_estimate_seconds",
			Help:      "Most recent timeout estimate per operation key",
		},
		[]string{"operation"},
	)

	LatencySamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cua",
			Subsystem: "engine",
			Name:      "latency_samples_total",
			Help:      "Latency observations recorded per operation key",
		},
		[]string{"operation"},
	)

	ProviderOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cua",
			Subsystem: "engine",
			Name:      "provider_outcomes_total",
			Help:      "Provider attempt outcomes",
		},
		[]string{"provider", "outcome"},
	)

	prometheus.MustRegister(
		CapturesTotal,
		CaptureBytes,
		EvictionsTotal,
		EvictionFailuresTotal,
		TimeoutEstimate,
		LatencySamplesTotal,
		ProviderOutcomesTotal,
	)
}
