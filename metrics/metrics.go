// Package metrics provides the Prometheus metrics of audit runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace is the namespace for all seoaudit metrics.
	Namespace = "seoaudit"

	OutcomeProcessed = "processed"
	OutcomeFailed    = "failed"

	AugmentAccepted = "accepted"
	AugmentRejected = "rejected"
	AugmentError    = "error"
)

// Metrics holds the audit collectors. A nil *Metrics records nothing.
type Metrics struct {
	RecordsTotal    *prometheus.CounterVec
	Scores          prometheus.Histogram
	Grades          *prometheus.CounterVec
	AugmentTotal    *prometheus.CounterVec
	BatchDuration   prometheus.Histogram
	BatchesTotal    *prometheus.CounterVec
	BatchInProgress prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the collectors on reg and serves them from gatherer
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{gatherer: gatherer}

	m.RecordsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_total",
			Help:      "Content records scored, by outcome",
		},
		[]string{"outcome"},
	)

	m.Scores = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "score",
			Help:      "Distribution of SEO scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10), // 10 to 100
		},
	)

	m.Grades = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "grades_total",
			Help:      "Scored records by letter grade",
		},
		[]string{"grade"},
	)

	m.AugmentTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "augment",
			Name:      "requests_total",
			Help:      "Content augmentation attempts, by result",
		},
		[]string{"result"},
	)

	m.BatchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Duration of batch runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 15), // 0.1s to ~55min
		},
	)

	m.BatchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Batch runs, by status",
		},
		[]string{"status"},
	)

	m.BatchInProgress = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "in_progress",
			Help:      "Whether a batch run is in progress",
		},
	)

	return m
}

// Handler serves the registered metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordScore records a scored record
func (m *Metrics) RecordScore(score int, grade string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(OutcomeProcessed).Inc()
	m.Scores.Observe(float64(score))
	m.Grades.WithLabelValues(grade).Inc()
}

// RecordFailure records a record that could not be processed
func (m *Metrics) RecordFailure() {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(OutcomeFailed).Inc()
}

// RecordAugment records an augmentation attempt
func (m *Metrics) RecordAugment(result string) {
	if m == nil {
		return
	}
	m.AugmentTotal.WithLabelValues(result).Inc()
}

// BatchStarted marks a batch run as running
func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.BatchInProgress.Set(1)
}

// BatchFinished records the end of a batch run
func (m *Metrics) BatchFinished(duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.BatchInProgress.Set(0)
	m.BatchesTotal.WithLabelValues(status).Inc()
	m.BatchDuration.Observe(duration.Seconds())
}
