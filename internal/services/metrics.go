// Package services holds cross-cutting application services.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Update dispatch
	UpdatesReceived prometheus.Counter

	// Pipeline metrics
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	StageErrors      *prometheus.CounterVec
	MockFallbacks    prometheus.Counter
}

// SessionCounter reports the current live-session count for the gauge.
type SessionCounter interface {
	Count() int
}

// InitMetrics initializes the Prometheus metrics
func InitMetrics(sessions SessionCounter) *Metrics {
	metrics := &Metrics{
		UpdatesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "semantist_updates_received_total",
			Help: "Total number of chat updates received via webhook",
		}),

		// source: "collect", "list" or "analyze"; status: "success", "error" or "cancelled"
		PipelineRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "semantist_pipeline_runs_total",
			Help: "Total number of pipeline runs by source and outcome",
		}, []string{"source", "status"}),

		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "semantist_pipeline_duration_seconds",
			Help:    "End-to-end pipeline latency in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600}, // report polling dominates
		}),

		StageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "semantist_stage_errors_total",
			Help: "Total number of pipeline stage errors by stage",
		}, []string{"stage"}),

		MockFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "semantist_mock_fallbacks_total",
			Help: "Total number of runs that fell back to mock semantics",
		}),
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "semantist_sessions_active",
			Help: "Current number of live chat sessions",
		},
		func() float64 {
			if sessions != nil {
				return float64(sessions.Count())
			}
			return 0
		},
	))

	return metrics
}

// RecordUpdate records one inbound webhook update.
func (m *Metrics) RecordUpdate() {
	m.UpdatesReceived.Inc()
}

// RecordPipelineRun records a finished pipeline run.
func (m *Metrics) RecordPipelineRun(source, status string, seconds float64) {
	m.PipelineRuns.WithLabelValues(source, status).Inc()
	m.PipelineDuration.Observe(seconds)
}

// RecordStageError records a stage failure.
func (m *Metrics) RecordStageError(stage string) {
	m.StageErrors.WithLabelValues(stage).Inc()
}

// RecordMockFallback records a fallback to mock semantics.
func (m *Metrics) RecordMockFallback() {
	m.MockFallbacks.Inc()
}
