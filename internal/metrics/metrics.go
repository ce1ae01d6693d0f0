package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful backend calls.
	OutcomeSuccess = "success"
	// OutcomeError labels failed backend calls (network, status or decode issues).
	OutcomeError = "error"
)

var (
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lead_dashboard",
			Name:      "backend_requests_total",
			Help:      "Total number of lead backend calls, partitioned by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	backendRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lead_dashboard",
			Name:      "backend_request_seconds",
			Help:      "Lead backend call latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	pageRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lead_dashboard",
			Name:      "page_renders_total",
			Help:      "Rendered dashboard pages, partitioned by page.",
		},
		[]string{"page"},
	)

	staleWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lead_dashboard",
			Name:      "stale_view_writes_total",
			Help:      "Fetch results discarded because their view was unmounted or superseded.",
		},
	)
)

// Register attaches lead-dashboard collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		backendRequestsTotal,
		backendRequestSeconds,
		pageRendersTotal,
		staleWritesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveBackendCall records a backend call duration and outcome label.
func ObserveBackendCall(endpoint string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	backendRequestsTotal.WithLabelValues(endpoint, label).Inc()
	if duration < 0 {
		duration = 0
	}
	backendRequestSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObservePageRender counts a rendered page.
func ObservePageRender(page string) {
	pageRendersTotal.WithLabelValues(page).Inc()
}

// ObserveStaleWrite counts a discarded fetch result.
func ObserveStaleWrite() {
	staleWritesTotal.Inc()
}
