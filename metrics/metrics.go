// Package metrics exposes the gateway's Prometheus collectors. Recording is
// fire-and-forget: callers never block on the sink and no request-scoped
// state is mutated here.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's authentication, canary and proxy collectors.
// All counters are monotonically increasing for the process lifetime.
type Metrics struct {
	registry *prometheus.Registry

	AuthValidationsTotal        *prometheus.CounterVec
	AuthValidationDuration      *prometheus.HistogramVec
	CanaryRequestsTotal         *prometheus.CounterVec
	ActiveAuthenticatedRequests prometheus.Gauge
	ProxyRequestsTotal          *prometheus.CounterVec
	ProxyDuration               *prometheus.HistogramVec
}

// New creates the gateway metrics on a fresh registry so tests can assert
// counter values in isolation.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		AuthValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_auth_validations_total",
				Help: "Total number of authentication validation attempts",
			},
			[]string{"result", "service"},
		),
		AuthValidationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_auth_validation_duration_seconds",
				Help:    "Time spent validating authentication tokens",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		CanaryRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_canary_requests_total",
				Help: "Total requests processed by the canary sampler",
			},
			[]string{"authenticated"},
		),
		ActiveAuthenticatedRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_active_authenticated_requests",
				Help: "Number of currently active authenticated requests",
			},
		),
		ProxyRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_proxy_requests_total",
				Help: "Total proxy requests",
			},
			[]string{"service", "method", "status_code"},
		),
		ProxyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_proxy_duration_seconds",
				Help:    "Time spent proxying requests to backend services",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method"},
		),
	}

	registry.MustRegister(
		m.AuthValidationsTotal,
		m.AuthValidationDuration,
		m.CanaryRequestsTotal,
		m.ActiveAuthenticatedRequests,
		m.ProxyRequestsTotal,
		m.ProxyDuration,
	)

	return m
}

// ObserveValidation records one authentication validation outcome and its
// latency.
func (m *Metrics) ObserveValidation(result string, duration time.Duration) {
	m.AuthValidationsTotal.WithLabelValues(result, "gateway").Inc()
	m.AuthValidationDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordCanary records a canary sampling draw labeled by its outcome.
func (m *Metrics) RecordCanary(authenticated bool) {
	m.CanaryRequestsTotal.WithLabelValues(strconv.FormatBool(authenticated)).Inc()
}

// RecordProxy records one proxied request keyed by service, method and the
// status code returned to the client.
func (m *Metrics) RecordProxy(service, method string, status int, duration time.Duration) {
	m.ProxyRequestsTotal.WithLabelValues(service, method, strconv.Itoa(status)).Inc()
	m.ProxyDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
