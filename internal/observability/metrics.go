// Package observability holds the Prometheus metrics of the dashboard.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qualificacao"

// Metrics holds the Prometheus counters, histograms and gauges of the
// dashboard. A nil *Metrics is valid and records nothing.
type Metrics struct {
	LayerRenders    *prometheus.CounterVec   // labels: layer
	Clicks          *prometheus.CounterVec   // labels: method={properties,point,none}, outcome={opened,duplicate,unresolved}
	Exports         *prometheus.CounterVec   // labels: format={csv,xlsx,png}
	Reloads         *prometheus.CounterVec   // labels: outcome={success,error}
	Sessions        prometheus.Gauge         // live sessions after the last sweep
	RequestDuration *prometheus.HistogramVec // labels: route

	registry *prometheus.Registry
}

// NewMetrics creates the dashboard metrics on a dedicated registry that also
// carries the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry without the
// runtime collectors.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	m := &Metrics{
		LayerRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_renders_total",
			Help:      "Choropleth layers rendered, by layer.",
		}, []string{"layer"}),
		Clicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_total",
			Help:      "Map clicks by resolution method and outcome.",
		}, []string{"method", "outcome"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Municipality extracts served, by format.",
		}, []string{"format"}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_reloads_total",
			Help:      "Data file reloads by outcome.",
		}, []string{"outcome"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Sessions held in memory.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration by route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.LayerRenders,
		m.Clicks,
		m.Exports,
		m.Reloads,
		m.Sessions,
		m.RequestDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// LayerRendered counts one rendered layer.
func (m *Metrics) LayerRendered(layer string) {
	if m == nil {
		return
	}
	m.LayerRenders.WithLabelValues(layer).Inc()
}

// Click counts one click.
func (m *Metrics) Click(method, outcome string) {
	if m == nil {
		return
	}
	m.Clicks.WithLabelValues(method, outcome).Inc()
}

// Exported counts one extract.
func (m *Metrics) Exported(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}

// Reloaded counts one reload attempt.
func (m *Metrics) Reloaded(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Reloads.WithLabelValues(outcome).Inc()
}

// SetSessions records the number of stored sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}

// ObserveRequest records how long a request on route took.
func (m *Metrics) ObserveRequest(route string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
