// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wedding_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// IntegrityRejections counts writes refused by the reference or uniqueness checks.
	IntegrityRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wedding_integrity_rejections_total",
			Help: "Writes rejected by cross-entity integrity checks",
		},
		[]string{"kind"},
	)

	// Uploads counts uploaded files by result (stored|rejected|failed).
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wedding_uploads_total",
			Help: "Image upload attempts per file",
		},
		[]string{"result"},
	)
)
