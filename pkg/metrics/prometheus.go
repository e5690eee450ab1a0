package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsGenerated *prometheus.CounterVec
	symbolsScored   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astropull_events_generated_total",
				Help: "Total celestial events generated per stream",
			},
			[]string{"stream"},
		),
		symbolsScored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astropull_symbols_scored_total",
				Help: "Total symbols scored per category and rating",
			},
			[]string{"category", "rating"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astropull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "astropull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEventsGenerated records events emitted into one stream.
func (r *Recorder) RecordEventsGenerated(stream string, n int) {
	r.eventsGenerated.WithLabelValues(stream).Add(float64(n))
}

// RecordSymbolScored records one scored symbol by category and rating.
func (r *Recorder) RecordSymbolScored(category, rating string) {
	r.symbolsScored.WithLabelValues(category, rating).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
