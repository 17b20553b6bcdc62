// Package metrics provides Prometheus metrics for the textpaste server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	SavesTotal         prometheus.Counter
	RecordsSweptTotal  prometheus.Counter
	StorageErrorsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textpaste_requests_total",
				Help: "Total HTTP requests by route and status code.",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "textpaste_request_duration_seconds",
				Help:    "Request handling duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		SavesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textpaste_saves_total",
				Help: "Total records saved.",
			},
		),
		RecordsSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "textpaste_records_swept_total",
				Help: "Total records removed by the retention sweep.",
			},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textpaste_storage_errors_total",
				Help: "Total storage backend errors by operation.",
			},
			[]string{"op"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.SavesTotal)
	reg.MustRegister(m.RecordsSweptTotal)
	reg.MustRegister(m.StorageErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}

// ObserveDuration records request handling duration.
func (m *Metrics) ObserveDuration(route string, seconds float64) {
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordSave increments the saved-records counter.
func (m *Metrics) RecordSave() {
	m.SavesTotal.Inc()
}

// RecordSwept adds to the swept-records counter.
func (m *Metrics) RecordSwept(n int) {
	m.RecordsSweptTotal.Add(float64(n))
}

// RecordStorageError increments the storage error counter.
func (m *Metrics) RecordStorageError(op string) {
	m.StorageErrorsTotal.WithLabelValues(op).Inc()
}
