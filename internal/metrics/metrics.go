// Package metrics exposes Prometheus counters for the dashboard, the API and
// the pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rnaseqde"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds every collector the service reports.
type Metrics struct {
	registry *prometheus.Registry

	uploads       *prometheus.CounterVec
	pipelineRuns  *prometheus.CounterVec
	genesAnalyzed prometheus.Histogram
	downloads     *prometheus.CounterVec
}

// New registers the service collectors on a fresh registry. Process and Go
// runtime collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Count matrix uploads by format and outcome.",
		}, []string{"format", "outcome"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Differential expression runs by outcome.",
		}, []string{"outcome"}),
		genesAnalyzed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "genes_analyzed",
			Help:      "Genes per successful pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Result exports by format.",
		}, []string{"format"}),
	}
	reg.MustRegister(m.uploads, m.pipelineRuns, m.genesAnalyzed, m.downloads)
	return m
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveUpload(format string, err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(format, outcome(err)).Inc()
}

func (m *Metrics) ObserveRun(genes int, err error) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.genesAnalyzed.Observe(float64(genes))
	}
}

func (m *Metrics) ObserveDownload(format string) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(format).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
