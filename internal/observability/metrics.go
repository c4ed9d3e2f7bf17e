package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// station poll pipeline.
type Metrics struct {
	BlocksPolled    prometheus.Counter
	PollErrors      prometheus.Counter
	BlocksDecoded   prometheus.Counter
	EmptyBlocks     prometheus.Counter
	FieldsDecoded   prometheus.Counter
	PublishErrors   prometheus.Counter
	PipelineRunning prometheus.Gauge
	StationUp       prometheus.Gauge

	PollDuration   prometheus.Histogram
	FieldsPerBlock prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BlocksPolled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathermate",
			Name:      "blocks_polled_total",
			Help:      "Total poll cycles attempted against the station.",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathermate",
			Name:      "poll_errors_total",
			Help:      "Poll cycles that produced no block (connect or read failure).",
		}),
		BlocksDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathermate",
			Name:      "blocks_decoded_total",
			Help:      "Blocks decoded into at least one observation field.",
		}),
		EmptyBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathermate",
			Name:      "empty_blocks_total",
			Help:      "Blocks received in which no field was readable.",
		}),
		FieldsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathermate",
			Name:      "fields_decoded_total",
			Help:      "Observation fields decoded across all blocks.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathermate",
			Name:      "publish_errors_total",
			Help:      "Records dropped because the sink publish failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weathermate",
			Name:      "pipeline_running",
			Help:      "1 when the poll loop is active, 0 when shut down.",
		}),
		StationUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weathermate",
			Name:      "station_up",
			Help:      "1 when the last poll reached the station, 0 otherwise.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weathermate",
			Name:      "poll_duration_seconds",
			Help:      "Duration of a complete poll-decode-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FieldsPerBlock: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weathermate",
			Name:      "fields_per_block",
			Help:      "Number of readable fields per received block.",
			Buckets:   []float64{0, 2, 4, 6, 8, 10, 12, 14},
		}),
	}

	prometheus.MustRegister(
		m.BlocksPolled,
		m.PollErrors,
		m.BlocksDecoded,
		m.EmptyBlocks,
		m.FieldsDecoded,
		m.PublishErrors,
		m.PipelineRunning,
		m.StationUp,
		m.PollDuration,
		m.FieldsPerBlock,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		BlocksPolled:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weathermate", Name: "blocks_polled_total"}),
		PollErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weathermate", Name: "poll_errors_total"}),
		BlocksDecoded:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weathermate", Name: "blocks_decoded_total"}),
		EmptyBlocks:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weathermate", Name: "empty_blocks_total"}),
		FieldsDecoded:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weathermate", Name: "fields_decoded_total"}),
		PublishErrors:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weathermate", Name: "publish_errors_total"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weathermate", Name: "pipeline_running"}),
		StationUp:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weathermate", Name: "station_up"}),
		PollDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weathermate", Name: "poll_duration_seconds"}),
		FieldsPerBlock:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weathermate", Name: "fields_per_block"}),
	}
}
