package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Labels for webhook event metrics
	eventLabels = []string{"category"}
	// Labels for tracking pipeline outcomes
	pipelineActionLabels = []string{"category", "action", "error_type"}

	// Webhook Event Counters
	EventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_intake_events_received_total",
			Help: "Total number of webhook events received and persisted, labeled by category.",
		},
		eventLabels,
	)
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_intake_events_processed_total",
			Help: "Total number of events whose pipeline run completed without error, labeled by category.",
		},
		eventLabels,
	)
	EventsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_intake_events_failed_total",
			Help: "Total number of events whose pipeline run returned an error, labeled by category.",
		},
		eventLabels,
	)

	// Histogram for Pipeline Processing Duration
	PipelineDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_intake_pipeline_duration_seconds",
			Help:    "Histogram of completion pipeline run durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		eventLabels,
	)

	// Counter for Specific Pipeline Outcomes
	PipelineActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_intake_pipeline_actions_total",
			Help: "Total count of specific actions taken by the completion pipeline, labeled by error type.",
		},
		pipelineActionLabels,
	)
)

// Metrics related to the in-process event queue
var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_intake_queue_depth",
		Help: "Current number of events waiting in the in-process queue.",
	})
	queueItemsEnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_intake_queue_items_enqueued_total",
		Help: "Total number of events enqueued for asynchronous processing.",
	})
	queueItemsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_intake_queue_items_dropped_total",
		Help: "Total number of events rejected because the queue was already stopped.",
	})
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "status"}

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_intake_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// --- Outbound Collaborator Metrics ---
var (
	sheetAppendLabels = []string{"kind", "status"}

	sheetAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_intake_sheet_appends_total",
			Help: "Total number of sheet append attempts, labeled by write kind and outcome.",
		},
		sheetAppendLabels,
	)

	analyzerStatusLabels = []string{"status"}

	analyzerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_intake_analyzer_requests_total",
			Help: "Total number of call analysis requests, labeled by outcome.",
		},
		analyzerStatusLabels,
	)
	analyzerRequestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_intake_analyzer_request_duration_seconds",
		Help:    "Histogram of call analysis request durations.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})
)

// --- Tool Endpoint Metrics ---
var (
	toolInvocationLabels = []string{"tool", "status"}

	toolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_intake_tool_invocations_total",
			Help: "Total number of tool endpoint invocations, labeled by tool name and outcome.",
		},
		toolInvocationLabels,
	)

	webhookSignatureFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_intake_webhook_signature_failures_total",
		Help: "Total number of webhook requests rejected for an invalid signature.",
	})
)

// InitMetrics initializes the Prometheus metrics if enabled.
// Call this function during application startup.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncEventsReceived increments the events received counter.
func IncEventsReceived(category string) {
	if !metricsEnabled {
		return
	}
	EventsReceivedTotal.WithLabelValues(sanitizeCategory(category)).Inc()
}

// IncEventsProcessed increments the events processed counter.
func IncEventsProcessed(category string) {
	if !metricsEnabled {
		return
	}
	EventsProcessedTotal.WithLabelValues(sanitizeCategory(category)).Inc()
}

// IncEventsFailed increments the events failed counter.
func IncEventsFailed(category string) {
	if !metricsEnabled {
		return
	}
	EventsFailedTotal.WithLabelValues(sanitizeCategory(category)).Inc()
}

// sanitizeCategory keeps the category label bounded and non-empty.
func sanitizeCategory(category string) string {
	if category == "" {
		return "unknown"
	}
	return category
}

// --- Queue Metric Helpers ---

// SetQueueDepth sets the current queue depth gauge.
func SetQueueDepth(length int) {
	if !metricsEnabled {
		return
	}
	queueDepth.Set(float64(length))
}

// IncQueueItemsEnqueued increments the enqueued items counter.
func IncQueueItemsEnqueued() {
	if !metricsEnabled {
		return
	}
	queueItemsEnqueuedTotal.Inc()
}

// IncQueueItemsDropped increments the dropped items counter.
func IncQueueItemsDropped() {
	if !metricsEnabled {
		return
	}
	queueItemsDroppedTotal.Inc()
}

// --- Pipeline Metric Helpers ---

// ObservePipelineDuration records the processing time for one pipeline run.
func ObservePipelineDuration(category string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	PipelineDurationSeconds.WithLabelValues(sanitizeCategory(category)).Observe(duration.Seconds())
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, status).Observe(duration.Seconds())
}

// IncPipelineAction increments the counter for a specific pipeline outcome.
func IncPipelineAction(category, action, errorType string) {
	if !metricsEnabled {
		return
	}
	PipelineActionsTotal.WithLabelValues(sanitizeCategory(category), action, SanitizeErrorType(errorType)).Inc()
}

// SanitizeErrorType maps specific errors to a coarse category.
// Keep this simple to avoid high cardinality.
func SanitizeErrorType(errStr string) string {
	// If no error (e.g., for success actions), return "none"
	if errStr == "" || errStr == "none" {
		return "none"
	}

	switch {
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "SQL"), strings.Contains(errStr, "duplicate"), strings.Contains(errStr, "constraint"), strings.Contains(errStr, "locked"):
		return "database"
	case strings.Contains(errStr, "sheet"):
		return "sheets"
	case strings.Contains(errStr, "analy"):
		return "analyzer"
	case strings.Contains(errStr, "validation failed"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid"), strings.Contains(errStr, "missing field"):
		return "validation"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no rows"):
		return "not_found"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "unmarshal"), strings.Contains(errStr, "json"):
		return "unmarshal"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}

// --- Sheet Writer Metric Helpers ---

// IncSheetAppendSuccess increments the success counter for a sheet append.
func IncSheetAppendSuccess(kind string) {
	if !metricsEnabled {
		return
	}
	sheetAppendsTotal.WithLabelValues(kind, "success").Inc()
}

// IncSheetAppendFailure increments the failure counter for a sheet append.
func IncSheetAppendFailure(kind string) {
	if !metricsEnabled {
		return
	}
	sheetAppendsTotal.WithLabelValues(kind, "error").Inc()
}

// --- Analyzer Metric Helpers ---

// ObserveAnalyzerRequest records the outcome and duration of an analysis request.
func ObserveAnalyzerRequest(duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	analyzerRequestsTotal.WithLabelValues(status).Inc()
	analyzerRequestDurationSeconds.Observe(duration.Seconds())
}

// --- Tool Endpoint Metric Helpers ---

// IncToolInvocation increments the tool invocation counter.
func IncToolInvocation(tool, status string) {
	if !metricsEnabled {
		return
	}
	toolInvocationsTotal.WithLabelValues(tool, status).Inc()
}

// IncWebhookSignatureFailure increments the rejected-signature counter.
func IncWebhookSignatureFailure() {
	if !metricsEnabled {
		return
	}
	webhookSignatureFailuresTotal.Inc()
}
