package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide HTTP metrics. Feature counters live in the
// per-feature metrics packages.
type Metrics struct {
	HTTPDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "libris_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest records one request's latency.
func (m *Metrics) ObserveRequest(route, method string, status int, seconds float64) {
	m.HTTPDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(seconds)
}
