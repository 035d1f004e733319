package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// labelHandler partitions metrics by logical endpoint rather than raw path.
const labelHandler = "handler"

// serverMetrics holds the Prometheus collectors owned by the HTTP server.
// Recommendation outcomes are recorded by the librarian package itself.
type serverMetrics struct {
	// httpRequestsTotal counts handled requests by method, handler and code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records handler latency.
	httpDurationSeconds *prometheus.HistogramVec

	// recommendInFlight is the number of /api/recommend requests in progress.
	recommendInFlight prometheus.Gauge
}

// newServerMetrics registers the server metrics against reg. A nil reg
// yields working but unregistered collectors.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "librarian",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", labelHandler}),

		recommendInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "librarian",
			Subsystem: "recommend",
			Name:      "in_flight",
			Help:      "Number of /api/recommend requests currently being served.",
		}),
	}
}
