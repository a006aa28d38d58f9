package observer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	dbOperationLabels   = []string{"operation", "entity", "status"}
	eventLabels         = []string{"event_type"}
	uploadOutcomeLabels = []string{"document_type", "outcome"}
	syncItemLabels      = []string{"entity", "action"}

	// EventsReceivedTotal counts webhook events delivered by JetStream.
	EventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expediente_service_events_received_total",
			Help: "Total number of webhook events received from JetStream.",
		},
		eventLabels,
	)
	// EventsProcessedTotal counts events successfully processed and acked.
	EventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expediente_service_events_processed_total",
			Help: "Total number of webhook events successfully processed and acknowledged.",
		},
		eventLabels,
	)
	// EventsFailedTotal counts events whose processing failed (nacked or terminated).
	EventsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expediente_service_events_failed_total",
			Help: "Total number of webhook events that failed processing.",
		},
		eventLabels,
	)

	// DbOperationDurationSeconds observes repository call latencies.
	DbOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "expediente_service_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		dbOperationLabels,
	)

	// UploadOutcomesTotal tracks the three-way upload decision plus errors.
	UploadOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expediente_service_upload_outcomes_total",
			Help: "Total document uploads by outcome (new_version, duplicate, conflict, error).",
		},
		uploadOutcomeLabels,
	)

	// ReviewDecisionsTotal tracks accept/reject decisions.
	ReviewDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expediente_service_review_decisions_total",
			Help: "Total document review decisions.",
		},
		[]string{"decision"},
	)

	// AuditWriteFailuresTotal counts audit rows that could not be appended.
	// Audit is best-effort and never fails the caller, so this counter is the
	// only trace of a dropped record.
	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expediente_service_audit_write_failures_total",
			Help: "Total audit events that could not be persisted.",
		},
	)

	// SyncItemsTotal counts per-item sync outcomes.
	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expediente_service_sync_items_total",
			Help: "Total synchronizer items by entity and action (inserted, updated, skipped, error).",
		},
		syncItemLabels,
	)

	// SyncRunDurationSeconds observes whole synchronizer runs.
	SyncRunDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "expediente_service_sync_run_duration_seconds",
			Help:    "Histogram of full synchronizer run durations.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~27m
		},
	)

	// ExportsCreatedTotal counts successfully assembled export bundles.
	ExportsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expediente_service_exports_created_total",
			Help: "Total export bundles assembled and registered.",
		},
	)

	// ExportFailuresTotal counts export requests rejected before assembly.
	ExportFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expediente_service_export_failures_total",
			Help: "Total export requests that failed, by reason.",
		},
		[]string{"reason"},
	)

	// ExportDurationSeconds observes export assembly latency.
	ExportDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "expediente_service_export_duration_seconds",
			Help:    "Histogram of export assembly durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
	)
)

// InitMetrics enables or disables metric collection globally.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// ObserveDbOperationDuration records the duration of a repository call.
func ObserveDbOperationDuration(operation, entity string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DbOperationDurationSeconds.WithLabelValues(operation, entity, status).Observe(duration.Seconds())
}

// IncEventReceived records a delivered webhook event.
func IncEventReceived(eventType string) {
	if !metricsEnabled {
		return
	}
	EventsReceivedTotal.WithLabelValues(eventType).Inc()
}

// IncEventProcessed records a successfully processed webhook event.
func IncEventProcessed(eventType string) {
	if !metricsEnabled {
		return
	}
	EventsProcessedTotal.WithLabelValues(eventType).Inc()
}

// IncEventFailed records a failed webhook event.
func IncEventFailed(eventType string) {
	if !metricsEnabled {
		return
	}
	EventsFailedTotal.WithLabelValues(eventType).Inc()
}

// IncUploadOutcome records the decision taken for one upload.
func IncUploadOutcome(documentType, outcome string) {
	if !metricsEnabled {
		return
	}
	UploadOutcomesTotal.WithLabelValues(documentType, outcome).Inc()
}

// IncReviewDecision records an accept/reject decision.
func IncReviewDecision(decision string) {
	if !metricsEnabled {
		return
	}
	ReviewDecisionsTotal.WithLabelValues(decision).Inc()
}

// IncAuditWriteFailure records an audit row that was dropped.
func IncAuditWriteFailure() {
	if !metricsEnabled {
		return
	}
	AuditWriteFailuresTotal.Inc()
}

// IncSyncItem records a per-item synchronizer outcome.
func IncSyncItem(entity, action string) {
	if !metricsEnabled {
		return
	}
	SyncItemsTotal.WithLabelValues(entity, action).Inc()
}

// ObserveSyncRunDuration records a full synchronizer run.
func ObserveSyncRunDuration(duration time.Duration) {
	if !metricsEnabled {
		return
	}
	SyncRunDurationSeconds.Observe(duration.Seconds())
}

// IncExportCreated records a successful export.
func IncExportCreated() {
	if !metricsEnabled {
		return
	}
	ExportsCreatedTotal.Inc()
}

// IncExportFailure records a rejected export request.
func IncExportFailure(reason string) {
	if !metricsEnabled {
		return
	}
	ExportFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveExportDuration records export assembly latency.
func ObserveExportDuration(duration time.Duration) {
	if !metricsEnabled {
		return
	}
	ExportDurationSeconds.Observe(duration.Seconds())
}
