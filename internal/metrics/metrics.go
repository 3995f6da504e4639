package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics records per-route request counts and latencies.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// Observe records one finished request.
func (m *HTTPMetrics) Observe(method, path string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// MailMetrics counts outbound e-mail by template and outcome.
type MailMetrics struct {
	sent *prometheus.CounterVec
}

// NewMailMetrics registers the mail collectors on reg.
func NewMailMetrics(reg prometheus.Registerer) *MailMetrics {
	return &MailMetrics{
		sent: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "emails_sent_total",
				Help: "Outbound e-mails by kind and result",
			},
			[]string{"kind", "result"},
		),
	}
}

// Sent records a delivery attempt for kind.
func (m *MailMetrics) Sent(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sent.WithLabelValues(kind, result).Inc()
}
