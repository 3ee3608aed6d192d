// Package metrics holds the Prometheus collectors of the relay.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusUnavailable labels upstream calls that never produced a response.
const StatusUnavailable = "unavailable"

// Metrics groups the collectors of one relay process on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	CatalogUp        prometheus.Gauge
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: registry,
		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_relay_upstream_requests_total",
				Help: "Total number of requests sent to the catalog",
			},
			[]string{"operation", "status"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_relay_upstream_duration_seconds",
				Help:    "Duration of catalog requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_relay_http_requests_total",
				Help: "Total number of REST requests served",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_relay_http_duration_seconds",
				Help:    "Duration of REST requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CatalogUp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_relay_catalog_up",
				Help: "Whether the last catalog health probe succeeded",
			},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveUpstream records one catalog call. A zero status means the call
// failed before a response arrived.
func (m *Metrics) ObserveUpstream(operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := StatusUnavailable
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(operation, label).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served REST request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetCatalogUp records the outcome of a health probe.
func (m *Metrics) SetCatalogUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.CatalogUp.Set(1)
	} else {
		m.CatalogUp.Set(0)
	}
}
