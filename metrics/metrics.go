// Package metrics holds the Prometheus collectors for the gateway, cache and
// orchestrator. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// Gateway Metrics
	GatewayRequests   *prometheus.CounterVec
	GatewayDuration   *prometheus.HistogramVec
	SessionRefresh    *prometheus.CounterVec
	Reauthentications prometheus.Counter

	// Cache Metrics
	CacheWrites     *prometheus.CounterVec
	HydrationMisses *prometheus.CounterVec

	// Orchestrator Metrics
	Operations *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Requests executed by the gateway, by method and terminal outcome.",
		}, []string{"method", "outcome"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Wall time of gateway requests including any refresh and replay.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		SessionRefresh: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_session_refresh_total",
			Help: "Credential refresh attempts triggered by the gateway.",
		}, []string{"result"}),
		Reauthentications: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_reauthentications_total",
			Help: "Unrecoverable auth failures that sent the user back to login.",
		}),
		CacheWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_writes_total",
			Help: "Entity slot writes, by entity and operation.",
		}, []string{"entity", "op"}),
		HydrationMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hydration_misses_total",
			Help: "Durable mirror entries that were absent or unreadable at hydration.",
		}, []string{"entity", "reason"}),
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestrator_operations_total",
			Help: "Orchestrator operations by name and resulting status.",
		}, []string{"operation", "status"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(method, outcome).Inc()
	m.GatewayDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.SessionRefresh.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReauthentication() {
	if m == nil {
		return
	}
	m.Reauthentications.Inc()
}

func (m *Metrics) ObserveCacheWrite(entity, op string) {
	if m == nil {
		return
	}
	m.CacheWrites.WithLabelValues(entity, op).Inc()
}

func (m *Metrics) ObserveHydrationMiss(entity, reason string) {
	if m == nil {
		return
	}
	m.HydrationMisses.WithLabelValues(entity, reason).Inc()
}

func (m *Metrics) ObserveOperation(operation, status string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, status).Inc()
}
