package ssr

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Render outcomes recorded by Metrics.
const (
	outcomeOK             = "ok"
	outcomeDegraded       = "degraded"
	outcomeUnresolved     = "unresolved"
	outcomeUnserializable = "unserializable"
	outcomeExhausted      = "exhausted"
	outcomeError          = "error"
)

// Metrics collects render and engine pool metrics. A nil *Metrics records
// nothing.
type Metrics struct {
	namespace string
	registry  *prometheus.Registry

	renders        *prometheus.CounterVec
	renderLatency  *prometheus.HistogramVec
	acquireLatency prometheus.Histogram
	faults         *prometheus.CounterVec
}

// NewMetrics creates a collector with its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ssr"
	}

	m := &Metrics{namespace: namespace, registry: prometheus.NewRegistry()}

	m.renders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "total",
			Help:      "Total component renders by outcome",
		},
		[]string{"component", "outcome"},
	)

	m.renderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Time taken to render a component, engine wait included",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"component"},
	)

	m.acquireLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "acquire_duration_seconds",
			Help:      "Time spent waiting for a script engine",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		},
	)

	m.faults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "script_faults_total",
			Help:      "Script faults routed to the exception handler",
		},
		[]string{"component"},
	)

	m.registry.MustRegister(
		m.renders,
		m.renderLatency,
		m.acquireLatency,
		m.faults,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRender records one Render call.
func (m *Metrics) RecordRender(component, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(component, outcome).Inc()
	m.renderLatency.WithLabelValues(component).Observe(duration.Seconds())
}

// RecordAcquire records the wait for one engine lease.
func (m *Metrics) RecordAcquire(duration time.Duration) {
	if m == nil {
		return
	}
	m.acquireLatency.Observe(duration.Seconds())
}

// RecordFault records a script fault for component.
func (m *Metrics) RecordFault(component string) {
	if m == nil {
		return
	}
	m.faults.WithLabelValues(component).Inc()
}

// observePool exports pool counters read from stats at scrape time.
func (m *Metrics) observePool(stats func() PoolStats) {
	if m == nil {
		return
	}
	namespace := m.namespace
	gauge := func(name, help string, read func(PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      name,
			Help:      help,
		}, func() float64 { return read(stats()) })
	}
	counter := func(name, help string, read func(PoolStats) float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      name,
			Help:      help,
		}, func() float64 { return read(stats()) })
	}
	m.registry.MustRegister(
		gauge("live", "Live script engines", func(s PoolStats) float64 { return float64(s.Live) }),
		gauge("idle", "Idle script engines", func(s PoolStats) float64 { return float64(s.Idle) }),
		gauge("in_use", "Leased script engines", func(s PoolStats) float64 { return float64(s.InUse) }),
		counter("created_total", "Script engines created", func(s PoolStats) float64 { return float64(s.Created) }),
		counter("destroyed_total", "Script engines destroyed", func(s PoolStats) float64 { return float64(s.Destroyed) }),
	)
}
