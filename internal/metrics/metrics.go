// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rally"

// Metrics groups the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	escrowsCreated    prometheus.Counter
	escrowSubmissions *prometheus.CounterVec
	escrowViews       *prometheus.CounterVec
	escrowsExpired    prometheus.Counter
	notifications     *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		escrowsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lineup_escrows_created_total",
			Help:      "Lineup escrows created.",
		}),
		escrowSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lineup_escrow_submissions_total",
			Help:      "Recipient submissions by outcome.",
		}, []string{"result"}),
		escrowViews: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lineup_escrow_views_total",
			Help:      "Escrow detail lookups by outcome.",
		}, []string{"result"}),
		escrowsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lineup_escrows_expired_total",
			Help:      "Escrows moved to expired, lazily or by the sweeper.",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound notifications by channel and result.",
		}, []string{"channel", "result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) EscrowCreated() {
	if m == nil {
		return
	}
	m.escrowsCreated.Inc()
}

// EscrowSubmission counts a recipient submission with result such as
// "ok", "not_found", "expired" or "contact_mismatch".
func (m *Metrics) EscrowSubmission(result string) {
	if m == nil {
		return
	}
	m.escrowSubmissions.WithLabelValues(result).Inc()
}

func (m *Metrics) EscrowView(result string) {
	if m == nil {
		return
	}
	m.escrowViews.WithLabelValues(result).Inc()
}

func (m *Metrics) EscrowsExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.escrowsExpired.Add(float64(n))
}

// Notification counts one delivery attempt.
func (m *Metrics) Notification(channel string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(seconds)
}
