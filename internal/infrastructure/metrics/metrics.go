// Package metrics exposes Prometheus instrumentation for the analysis
// and export pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the services report into.
type Metrics struct {
	registry *prometheus.Registry

	AnalysisRequests *prometheus.CounterVec
	ReportExports    *prometheus.CounterVec
	RegionFailures   *prometheus.CounterVec
	BuildDuration    prometheus.Histogram
}

// New creates a metrics bundle backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		AnalysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buynest_analysis_requests_total",
			Help: "Analysis computations by outcome.",
		}, []string{"outcome"}),
		ReportExports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buynest_report_exports_total",
			Help: "PDF report exports by outcome.",
		}, []string{"outcome"}),
		RegionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buynest_report_region_failures_total",
			Help: "Report regions skipped due to render failures.",
		}, []string{"region"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "buynest_report_build_duration_seconds",
			Help:    "Wall time to assemble a PDF report.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	reg.MustRegister(m.AnalysisRequests, m.ReportExports, m.RegionFailures, m.BuildDuration)
	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
