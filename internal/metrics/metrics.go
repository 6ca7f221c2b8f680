// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Scheduling runs and their outcomes
// - Signal ingestion (HTTP and feed)
// - Report generation
// - Storage write failures

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablemix_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablemix_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Scheduling Metrics
	SchedulesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablemix_schedules_computed_total",
			Help: "Total number of party scheduling runs",
		},
		[]string{"outcome"}, // "success", "error"
	)

	ScheduleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tablemix_schedule_duration_seconds",
			Help:    "Duration of scheduling runs in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// Signal Metrics
	SignalsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablemix_signals_ingested_total",
			Help: "Total number of interaction signals ingested",
		},
		[]string{"source", "kind"}, // source: "api", "feed"
	)

	SignalsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablemix_signals_rejected_total",
			Help: "Total number of interaction signals rejected",
		},
		[]string{"source", "reason"},
	)

	// Feed Metrics
	FeedMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tablemix_feed_messages_consumed_total",
			Help: "Total number of messages consumed from the signal feed",
		},
	)

	FeedParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tablemix_feed_parse_failures_total",
			Help: "Total number of signal feed messages that failed to parse",
		},
	)

	FeedBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tablemix_feed_breaker_open",
			Help: "Whether the signal feed circuit breaker is open (1) or closed (0)",
		},
	)

	// Report Metrics
	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablemix_reports_generated_total",
			Help: "Total number of reports generated",
		},
		[]string{"type"}, // "summary", "detailed"
	)

	ReportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tablemix_report_duration_seconds",
			Help:    "Duration of report generation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// Storage Metrics
	StorageWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablemix_storage_write_errors_total",
			Help: "Total number of storage write failures",
		},
		[]string{"record_type"},
	)
)

// RecordAPIRequest tracks one completed API request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSchedule tracks one scheduling run.
func RecordSchedule(duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	SchedulesComputed.WithLabelValues(outcome).Inc()
	if err == nil {
		ScheduleDuration.Observe(duration.Seconds())
	}
}

// RecordSignal tracks one accepted signal.
func RecordSignal(source, kind string) {
	SignalsIngested.WithLabelValues(source, kind).Inc()
}

// RecordSignalRejected tracks one rejected signal.
func RecordSignalRejected(source, reason string) {
	SignalsRejected.WithLabelValues(source, reason).Inc()
}

// RecordReport tracks one generated report.
func RecordReport(reportType string, duration time.Duration) {
	ReportsGenerated.WithLabelValues(reportType).Inc()
	ReportDuration.Observe(duration.Seconds())
}

// SetBreakerOpen publishes the signal feed circuit breaker state.
func SetBreakerOpen(open bool) {
	if open {
		FeedBreakerState.Set(1)
		return
	}
	FeedBreakerState.Set(0)
}
