// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring a relay transport.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes.
const (
	OutcomeHandled   = "handled"
	OutcomeUnhandled = "unhandled"
)

// DurationBuckets covers typical request latencies from 5ms to 10s.
var DurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds the collectors of one transport. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	DispatchTotal   *prometheus.CounterVec
	ClientErrors    prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// gets a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		// RequestsTotal counts HTTP requests by method and status class.
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_requests_total",
				Help: "Total requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_request_duration_seconds",
				Help:    "Request duration",
				Buckets: DurationBuckets,
			},
			[]string{"method"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_requests_in_flight",
				Help: "Requests waiting for a reply",
			},
		),
		// DispatchTotal counts bus publications by whether anyone subscribed.
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_dispatch_total",
				Help: "Bus dispatches",
			},
			[]string{"outcome"},
		),
		ClientErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_client_errors_total",
				Help: "Malformed requests answered with 400",
			},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.InFlight,
		m.DispatchTotal,
		m.ClientErrors,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Dispatched records one bus publication.
func (m *Metrics) Dispatched(subscribers int) {
	if m == nil {
		return
	}
	outcome := OutcomeHandled
	if subscribers == 0 {
		outcome = OutcomeUnhandled
	}
	m.DispatchTotal.WithLabelValues(outcome).Inc()
}

// ClientError records one malformed request.
func (m *Metrics) ClientError() {
	if m == nil {
		return
	}
	m.ClientErrors.Inc()
}
