// Package metrics holds the Prometheus instruments shared across the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes request latency by route and status class.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nimbus",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status_class"})

	// AuthOps counts credential operations by op and outcome.
	AuthOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nimbus",
		Subsystem: "auth",
		Name:      "operations_total",
		Help:      "Credential operations forwarded to the backend.",
	}, []string{"op", "outcome"})

	// ProfileUpsertFailures counts suppressed background upsert failures.
	// The failures are never retried or surfaced; this counter is the only
	// observability channel for them.
	ProfileUpsertFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nimbus",
		Subsystem: "profile",
		Name:      "upsert_failures_total",
		Help:      "Background user-row upsert failures (logged and suppressed).",
	})

	// MirrorEvents counts change notifications by type.
	MirrorEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nimbus",
		Subsystem: "mirror",
		Name:      "events_total",
		Help:      "Session change notifications observed.",
	}, []string{"type"})
)
