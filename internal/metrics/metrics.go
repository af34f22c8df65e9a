// Package metrics exposes Prometheus metrics for the HTTP surface, upstream
// calls, the catalog cache and session transitions.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinebook/internal/session"
)

// Metrics owns its registry so tests and several servers in one process do
// not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	sessionEvents    *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinebook_http_requests_total",
			Help: "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cinebook_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinebook_upstream_requests_total",
			Help: "Calls to the upstream movie API, by endpoint and status (0 = no response).",
		}, []string{"endpoint", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cinebook_upstream_request_duration_seconds",
			Help:    "Upstream movie API latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinebook_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by key and result.",
		}, []string{"key", "result"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinebook_session_events_total",
			Help: "Session transitions by type.",
		}, []string{"event"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cinebook_active_sessions",
			Help: "Sessions started minus sessions ended since process start.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.upstreamRequests,
		m.upstreamDuration,
		m.cacheLookups,
		m.sessionEvents,
		m.activeSessions,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveUpstream implements external.Observer.
func (m *Metrics) ObserveUpstream(endpoint string, status int, d time.Duration) {
	m.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// CacheResult implements cache.Observer.
func (m *Metrics) CacheResult(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(key, result).Inc()
}

// OnSessionEvent implements session.Subscriber.
func (m *Metrics) OnSessionEvent(_ context.Context, ev session.Event) {
	m.sessionEvents.WithLabelValues(string(ev.Type)).Inc()
	switch ev.Type {
	case session.EventLogin:
		m.activeSessions.Inc()
	case session.EventLogout, session.EventTokenExpired:
		m.activeSessions.Dec()
	}
}
