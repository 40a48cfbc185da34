package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level Prometheus metrics. Component-specific
// counters (cache tiers, loader, alert rules) live in their own packages.
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all application-level Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enrolytics_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
