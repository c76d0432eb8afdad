// Package metrics defines the Prometheus collectors exported by eslintcraft.
//
// All recording methods are safe to call on a nil *Metrics, so components
// built without metrics need no special casing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eslintcraft"

// Fetch outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeNotModified = "not_modified"
	OutcomeStatus      = "status_error"
	OutcomeNetwork     = "network_error"
)

// Cache lookup results.
const (
	CacheHit         = "hit"
	CacheRevalidated = "revalidated"
	CacheMiss        = "miss"
)

// Metrics bundles the collectors.
type Metrics struct {
	fetchRequests  *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	catalogLoads   *prometheus.CounterVec
	sessionsActive prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "requests_total",
				Help:      "Outbound rule source requests by source kind and outcome",
			},
			[]string{"source", "outcome"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "Outbound rule source request latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"source"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"result"},
		),
		catalogLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "loads_total",
				Help:      "Catalog loads by kind (default, version) and outcome",
			},
			[]string{"kind", "outcome"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ui",
				Name:      "sessions_active",
				Help:      "Number of live wizard sessions",
			},
		),
	}

	reg.MustRegister(
		m.fetchRequests,
		m.fetchDuration,
		m.cacheLookups,
		m.catalogLoads,
		m.sessionsActive,
	)
	return m
}

// ObserveFetch records one outbound request.
func (m *Metrics) ObserveFetch(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchRequests.WithLabelValues(source, outcome).Inc()
	m.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveCache records one cache lookup.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCatalogLoad records a finished catalog load.
func (m *Metrics) ObserveCatalogLoad(kind string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = "error"
	}
	m.catalogLoads.WithLabelValues(kind, outcome).Inc()
}

// SetSessions sets the live session gauge.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
