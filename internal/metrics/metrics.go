package metrics

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides application metrics collection on its own registry.
type Collector struct {
	Registry *prometheus.Registry

	// Pipeline Metrics
	StageDuration    *prometheus.HistogramVec
	RunDuration      *prometheus.HistogramVec
	RecordsProcessed *prometheus.CounterVec
	RecordsByStatus  *prometheus.GaugeVec
	MissingKeys      *prometheus.GaugeVec
	RunErrorsTotal   *prometheus.CounterVec

	// Live lookup Metrics
	FetchDuration    *prometheus.HistogramVec
	FetchErrorsTotal *prometheus.CounterVec

	// API Metrics
	APIRequestsTotal *prometheus.CounterVec
}

// NewCollector creates a new metrics collector. Every collector owns a fresh
// registry, so several can coexist in one process.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		Registry: reg,

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_stage_duration_seconds",
				Help:      "Duration of a pipeline stage in seconds by engine and stage",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"engine", "stage"},
		),

		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_run_duration_seconds",
				Help:      "Duration of a full pipeline run in seconds by engine",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"engine"},
		),

		RecordsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_records_processed_total",
				Help:      "Total number of temperature records processed by engine",
			},
			[]string{"engine"},
		),

		RecordsByStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_records_by_status",
				Help:      "Records of the latest run by engine and anomaly status",
			},
			[]string{"engine", "status"},
		),

		MissingKeys: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_missing_join_keys",
				Help:      "Distinct (city, season) keys without statistics in the latest run",
			},
			[]string{"engine"},
		),

		RunErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_run_errors_total",
				Help:      "Total number of failed pipeline runs by engine",
			},
			[]string{"engine"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "live_fetch_duration_seconds",
				Help:      "Live weather lookup duration in seconds by provider",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"provider"},
		),

		FetchErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "live_fetch_errors_total",
				Help:      "Total number of failed live weather lookups by provider",
			},
			[]string{"provider"},
		),

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{Registry: c.Registry})
}

// Timer provides timing functionality for operations
type Timer struct {
	clock    clockwork.Clock
	start    time.Time
	observer prometheus.Observer
}

// NewTimer starts a timer on the given clock. A nil observer only measures.
func NewTimer(clock clockwork.Clock, observer prometheus.Observer) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{
		clock:    clock,
		start:    clock.Now(),
		observer: observer,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := t.clock.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(route, method, status string) {
	c.APIRequestsTotal.WithLabelValues(route, method, status).Inc()
}

// RecordFetchError increments the live lookup error counter
func (c *Collector) RecordFetchError(provider string) {
	c.FetchErrorsTotal.WithLabelValues(provider).Inc()
}

// RecordRunError increments the pipeline error counter
func (c *Collector) RecordRunError(engine string) {
	c.RunErrorsTotal.WithLabelValues(engine).Inc()
}

// SetStatusCounts replaces the per-status gauges of an engine.
func (c *Collector) SetStatusCounts(engine string, counts map[string]int) {
	for status, n := range counts {
		c.RecordsByStatus.WithLabelValues(engine, status).Set(float64(n))
	}
}
