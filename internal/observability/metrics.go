package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_track"

// Metrics holds the Prometheus counters, histograms, and gauges for a processing run.
type Metrics struct {
	ObservationsRead     prometheus.Counter
	ObservationsFiltered prometheus.Counter
	TracksDetected       prometheus.Counter
	ForcedSplits         prometheus.Counter
	RunFailures          *prometheus.CounterVec // labels: stage={extract,transform,load}
	PipelineRunning      prometheus.Gauge

	// Output metrics.
	MaskedValues  *prometheus.CounterVec // labels: series
	SeriesWritten *prometheus.CounterVec // labels: sink
	RunDuration   prometheus.Histogram

	// Gatherer is what Push sends to the Pushgateway.
	Gatherer prometheus.Gatherer
}

func newMetrics() *Metrics {
	return &Metrics{
		ObservationsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_read_total",
			Help:      "Total observations read from the source file.",
		}),
		ObservationsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_filtered_total",
			Help:      "Observations dropped for preceding the configured start season.",
		}),
		TracksDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_detected_total",
			Help:      "Tracks identified after segmentation and forced splits.",
		}),
		ForcedSplits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_splits_total",
			Help:      "Track starts added at implausible position jumps.",
		}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Failed runs by pipeline stage.",
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		MaskedValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "masked_values_total",
			Help:      "Missing values written per output series.",
		}, []string{"series"}),
		SeriesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_written_total",
			Help:      "Output series persisted, by sink.",
		}, []string{"sink"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ObservationsRead,
		m.ObservationsFiltered,
		m.TracksDetected,
		m.ForcedSplits,
		m.RunFailures,
		m.PipelineRunning,
		m.MaskedValues,
		m.SeriesWritten,
		m.RunDuration,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	m.Gatherer = prometheus.DefaultGatherer
	return m
}

// NewMetricsWith registers all pipeline metrics with reg, which also serves
// as the Gatherer.
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	m.Gatherer = reg
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}
