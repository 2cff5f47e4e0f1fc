// Package metrics exposes dashboard metrics on a Prometheus registry owned
// by the server, so several servers can live in one process.
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

const namespace = "ratechart"

type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RenderDuration  *prometheus.HistogramVec
	TooltipsTotal   *prometheus.CounterVec
	ImportsTotal    *prometheus.CounterVec
	StoredDatasets  prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by route",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
			},
			[]string{"route"},
		),

		RenderDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chart_render_duration_seconds",
				Help:      "Chart render duration in seconds by format",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
			},
			[]string{"format"},
		),

		TooltipsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tooltip_queries_total",
				Help:      "Total number of tooltip lookups by outcome",
			},
			[]string{"outcome"},
		),

		ImportsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_imports_total",
				Help:      "Total number of dataset imports by outcome",
			},
			[]string{"outcome"},
		),

		StoredDatasets: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stored_datasets",
				Help:      "Number of datasets in the store at the last listing",
			},
		),
	}
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Timer measures an operation into a histogram.
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

func (c *Collector) NewTimer(o prometheus.Observer) *Timer {
	return &Timer{start: time.Now(), observer: o}
}

// ObserveDuration records the elapsed time since the timer was created.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(d.Seconds())
	}
	return d
}

func (c *Collector) RecordRequest(route, method string, status int, d time.Duration) {
	c.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordTooltip counts a tooltip lookup. hit is false when the chart had
// nothing to show at the pointer.
func (c *Collector) RecordTooltip(hit bool) {
	outcome := "hit"
	if !hit {
		outcome = "empty"
	}
	c.TooltipsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordImport(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.ImportsTotal.WithLabelValues(outcome).Inc()
}
