// Package metrics exposes Prometheus collectors for gateway requests.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Porta048/AutoCad-MCP/internal/dispatch"
)

const namespace = "cadmcp"

// Metrics records request outcomes, driver latency and parse cache hits.
type Metrics struct {
	requests       *prometheus.CounterVec
	driverDuration *prometheus.HistogramVec
	parseCacheHits prometheus.Counter
}

var _ dispatch.Recorder = (*Metrics)(nil)

// MustNew registers the collectors with reg, or the default registerer when
// reg is nil. Collectors already registered under the same name are reused so
// several instances can share one registry.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests by tool, terminal status and error kind.",
		}, []string{"tool", "status", "kind"}),
		driverDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "driver_duration_seconds",
			Help:      "Time spent in CAD driver calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"tool"}),
		parseCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_cache_hits_total",
			Help:      "Instructions answered from the parse cache.",
		}),
	}
	m.requests = register(reg, m.requests)
	m.driverDuration = register(reg, m.driverDuration)
	m.parseCacheHits = register(reg, m.parseCacheHits)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// UnknownTool is the tool label for calls naming a tool that does not exist.
const UnknownTool = "unknown"

// Observe implements dispatch.Recorder.
func (m *Metrics) Observe(_ context.Context, ev dispatch.Event) {
	kind := ""
	if ev.Response.Error != nil {
		kind = string(ev.Response.Error.Kind)
	}
	// Unknown tool names come from the caller; one label keeps cardinality bounded.
	tool := ev.Tool
	if kind == string(dispatch.KindUnknownTool) {
		tool = UnknownTool
	}
	m.requests.WithLabelValues(tool, string(ev.Response.Status), kind).Inc()
	if ev.DriverDuration > 0 {
		m.driverDuration.WithLabelValues(tool).Observe(ev.DriverDuration.Seconds())
	}
}

// ParseCacheHit counts one parse cache hit. It matches nlp.Options.OnCacheHit.
func (m *Metrics) ParseCacheHit() {
	m.parseCacheHits.Inc()
}
