package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain/repository.Metrics using Prometheus.
type Recorder struct {
	strategyRuns    *prometheus.HistogramVec
	abstentions     *prometheus.CounterVec
	boundaries      *prometheus.GaugeVec
	folds           *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	eventsPublished *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		strategyRuns: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boundarylab_strategy_duration_seconds",
				Help:    "Duration of a single optimization strategy run",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method"},
		),
		abstentions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boundarylab_strategy_abstentions_total",
				Help: "Strategy runs that produced no boundaries",
			},
			[]string{"method"},
		),
		boundaries: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "boundarylab_strategy_boundaries",
				Help: "Boundaries found by the latest run of a strategy",
			},
			[]string{"method"},
		),
		folds: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boundarylab_validation_folds_total",
				Help: "Validation folds by outcome",
			},
			[]string{"strategy", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boundarylab_errors_total",
				Help: "Errors by domain kind",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boundarylab_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		eventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boundarylab_events_published_total",
				Help: "Analysis events delivered to a backend",
			},
			[]string{"backend"},
		),
	}
}

func (r *Recorder) RecordStrategyRun(method string, seconds float64, boundaries int, abstained bool) {
	r.strategyRuns.WithLabelValues(method).Observe(seconds)
	r.boundaries.WithLabelValues(method).Set(float64(boundaries))
	if abstained {
		r.abstentions.WithLabelValues(method).Inc()
	}
}

func (r *Recorder) RecordFold(strategy string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.folds.WithLabelValues(strategy, outcome).Inc()
}

// RecordError counts an error; errors without a domain kind count as "internal".
func (r *Recorder) RecordError(kind string) {
	if kind == "" {
		kind = "internal"
	}
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordPublished(backend string) {
	r.eventsPublished.WithLabelValues(backend).Inc()
}
