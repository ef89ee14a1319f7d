// Package metrics holds the Prometheus registry and the solver and HTTP
// metrics BarCut exposes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/piwi3910/BarCut/internal/engine"
)

const namespace = "barcut"

// Metrics wraps an isolated registry with the predefined collectors.
type Metrics struct {
	registry *prometheus.Registry

	SolvesTotal       *prometheus.CounterVec   // strategy, outcome
	SolveDuration     *prometheus.HistogramVec // strategy
	PatternsGenerated prometheus.Histogram
	SolverNodes       prometheus.Histogram

	HTTPRequestsTotal   *prometheus.CounterVec   // method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // method, path
	HTTPInFlight        prometheus.Gauge
}

// New creates a registry with Go runtime and process collectors plus the
// BarCut metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.SolvesTotal = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "solves_total",
		Help:      "Finished solves by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	m.SolveDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "solve_duration_seconds",
		Help:      "Wall time of a solve from validated input to plan.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"strategy"})

	m.PatternsGenerated = m.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "patterns_generated",
		Help:      "Cutting patterns enumerated per solve.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	m.SolverNodes = m.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "solver_nodes",
		Help:      "Branch-and-bound nodes explored per solve.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	m.HTTPRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})
	reg.MustRegister(m.HTTPInFlight)

	return m
}

func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

func (m *Metrics) NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	m.registry.MustRegister(h)
	return h
}

// ObserveSolve records one finished solve. It matches the engine observer
// signature so it can be passed to engine.WithObserver.
func (m *Metrics) ObserveSolve(ev engine.SolveEvent) {
	strategy := string(ev.Strategy)
	m.SolvesTotal.WithLabelValues(strategy, ev.Outcome).Inc()
	m.SolveDuration.WithLabelValues(strategy).Observe(ev.Duration.Seconds())
	if ev.Patterns > 0 {
		m.PatternsGenerated.Observe(float64(ev.Patterns))
	}
	if ev.Nodes > 0 {
		m.SolverNodes.Observe(float64(ev.Nodes))
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
