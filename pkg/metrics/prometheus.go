package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsStored   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastClose    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	pipelineRuns *prometheus.CounterVec
	lastBias     *prometheus.GaugeVec
	runBars      *prometheus.HistogramVec
	runSwings    *prometheus.HistogramVec
	runReversals *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		barsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "structscan_bars_stored_total",
				Help: "Total number of bars written to a backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "structscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastClose: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "structscan_last_close",
				Help: "Last recorded close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "structscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		pipelineRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "structscan_pipeline_runs_total",
				Help: "Completed annotation runs by symbol and final bias",
			},
			[]string{"symbol", "bias"},
		),
		lastBias: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "structscan_last_bias",
				Help: "Final bias of the latest run (-1 bear, 0 neutral, 1 bull)",
			},
			[]string{"symbol"},
		),
		runBars: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "structscan_run_bars",
				Help:    "Bars per annotation run",
				Buckets: prometheus.ExponentialBuckets(50, 2, 8),
			},
			[]string{"symbol"},
		),
		runSwings: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "structscan_run_swings",
				Help:    "Confirmed swings per annotation run",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"symbol"},
		),
		runReversals: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "structscan_run_reversals",
				Help:    "Reversal events per annotation run",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
			[]string{"symbol"},
		),
	}
}

// RecordBarStored records a bar written to a backend.
func (r *Recorder) RecordBarStored(backend, symbol string) {
	r.barsStored.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastClose records the last close for a symbol.
func (r *Recorder) RecordLastClose(symbol string, price float64) {
	r.lastClose.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordPipelineRun records outcome counters for one annotation run.
func (r *Recorder) RecordPipelineRun(symbol, bias string, bars, swings, reversals int) {
	r.pipelineRuns.WithLabelValues(symbol, bias).Inc()
	var v float64
	switch bias {
	case "bull":
		v = 1
	case "bear":
		v = -1
	}
	r.lastBias.WithLabelValues(symbol).Set(v)
	r.runBars.WithLabelValues(symbol).Observe(float64(bars))
	r.runSwings.WithLabelValues(symbol).Observe(float64(swings))
	r.runReversals.WithLabelValues(symbol).Observe(float64(reversals))
}
