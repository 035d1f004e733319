package librarian

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation outcome label values.
const (
	outcomeTool       = "tool"
	outcomeInferred   = "inferred"
	outcomeUnresolved = "unresolved"
	outcomeError      = "error"
)

// Tool call outcome label values.
const (
	toolResolved    = "resolved"
	toolInvalidArgs = "invalid_args"
	toolUnknown     = "unknown_tool"
)

// librarianMetrics holds the orchestrator's Prometheus metrics.
type librarianMetrics struct {
	// recommendTotal counts Recommend calls by how the title was determined.
	recommendTotal *prometheus.CounterVec

	// recommendDuration records end-to-end Recommend latency.
	recommendDuration *prometheus.HistogramVec

	// toolCallsTotal counts tool calls requested by the model, by outcome.
	toolCallsTotal *prometheus.CounterVec

	// promptTokens records the estimated prompt size per turn.
	promptTokens *prometheus.HistogramVec
}

// newLibrarianMetrics registers metrics against reg. A nil reg creates
// unregistered metrics.
func newLibrarianMetrics(reg prometheus.Registerer) *librarianMetrics {
	factory := promauto.With(reg)

	return &librarianMetrics{
		recommendTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Recommendations completed, partitioned by outcome.",
		}, []string{"outcome"}),

		recommendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "librarian",
			Subsystem: "recommend",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of a recommendation including retrieval and both model turns.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"outcome"}),

		toolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "librarian",
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Tool calls requested by the chat model, partitioned by tool and outcome.",
		}, []string{"tool", "outcome"}),

		promptTokens: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "librarian",
			Subsystem: "prompt",
			Name:      "estimated_tokens",
			Help:      "Estimated prompt size sent to the chat model, per turn.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000},
		}, []string{"turn"}),
	}
}
