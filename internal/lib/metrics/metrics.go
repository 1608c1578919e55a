package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// исходы обращения к бэкенду
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeUnauthorized = "unauthorized"
	OutcomeTransport    = "transport"
)

// Backend собирает метрики обращений к удалённому бэкенду магазина
type Backend struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewBackend(reg prometheus.Registerer) *Backend {
	m := &Backend{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests sent to the commerce backend by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Commerce backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Observe учитывает один запрос. Безопасен для nil
func (m *Backend) Observe(endpoint, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// Handler отдаёт метрики реестра в формате Prometheus
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
