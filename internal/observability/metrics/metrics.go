// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "media_transcription"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Job metrics
	JobsSubmitted *prometheus.CounterVec
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	JobDuration   *prometheus.HistogramVec
	QueueDepth    prometheus.Gauge

	// Pipeline stage metrics
	StageDuration    *prometheus.HistogramVec
	StageFatal       *prometheus.CounterVec
	StageDegraded    *prometheus.CounterVec
	SegmentsProduced prometheus.Counter

	// Worker metrics
	WorkersActive prometheus.Gauge

	// Export metrics
	ExportsTotal  *prometheus.CounterVec
	ExportsFailed *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		JobsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs admitted to the queue",
		}, []string{"tier"}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that reached COMPLETED",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of jobs that reached FAILED",
		}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of pipeline executions",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"tier", "outcome"}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of pending entries across both priority tiers",
		}),

		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600},
		}, []string{"stage"}),
		StageFatal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_fatal_total",
			Help:      "Total number of fatal stage failures",
		}, []string{"stage"}),
		StageDegraded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_degraded_total",
			Help:      "Total number of non-fatal stage failures absorbed by the pipeline",
		}, []string{"stage"}),
		SegmentsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_produced_total",
			Help:      "Total number of transcript segments produced",
		}),

		WorkersActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_active",
			Help:      "Number of workers currently executing a pipeline",
		}),

		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of transcript exports",
		}, []string{"format"}),
		ExportsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_failed_total",
			Help:      "Total number of failed transcript exports",
		}, []string{"format"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordJobSubmitted records a job entering the queue.
func (m *Metrics) RecordJobSubmitted(tier string) {
	m.JobsSubmitted.WithLabelValues(tier).Inc()
}

// SetQueueDepth records the current pending entry count.
func (m *Metrics) SetQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
}

// RecordJobOutcome records a terminal job outcome and its duration.
func (m *Metrics) RecordJobOutcome(tier string, completed bool, durationSeconds float64) {
	outcome := "completed"
	if completed {
		m.JobsCompleted.Inc()
	} else {
		outcome = "failed"
		m.JobsFailed.Inc()
	}
	m.JobDuration.WithLabelValues(tier, outcome).Observe(durationSeconds)
}

// RecordStage records a stage's duration.
func (m *Metrics) RecordStage(stage string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordStageFatal records a fatal stage failure.
func (m *Metrics) RecordStageFatal(stage string) {
	m.StageFatal.WithLabelValues(stage).Inc()
}

// RecordStageDegraded records an absorbed, non-fatal stage failure.
func (m *Metrics) RecordStageDegraded(stage string) {
	m.StageDegraded.WithLabelValues(stage).Inc()
}

// RecordSegments records how many segments a pipeline run produced.
func (m *Metrics) RecordSegments(n int) {
	m.SegmentsProduced.Add(float64(n))
}

// WorkerStarted marks a worker as busy.
func (m *Metrics) WorkerStarted() {
	m.WorkersActive.Inc()
}

// WorkerStopped marks a worker as idle.
func (m *Metrics) WorkerStopped() {
	m.WorkersActive.Dec()
}

// RecordExport records an export attempt.
func (m *Metrics) RecordExport(format string, err error) {
	m.ExportsTotal.WithLabelValues(format).Inc()
	if err != nil {
		m.ExportsFailed.WithLabelValues(format).Inc()
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
