package consumer

import (
	"github.com/prometheus/client_golang/prometheus"

	"example.com/progress/internal/events"
)

// Rejection reasons for record.changed events that cannot be applied.
const (
	rejectPayload        = "payload"
	rejectTenantMismatch = "tenant_mismatch"
	rejectMissingSubject = "missing_subject"
	rejectCache          = "cache"
)

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "messages_processed_total",
		Help:      "Change events acknowledged after handling, by topic and event type.",
	}, []string{"topic", "event_type"})

	handlerErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "handler_errors_total",
		Help:      "Change events left uncommitted because the handler failed.",
	}, []string{"topic", "event_type"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Malformed change events committed and skipped, per topic.",
	}, []string{"topic"})

	ignoredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "messages_ignored_total",
		Help:      "Events skipped because they do not affect progress summaries.",
	}, []string{"event_type"})

	invalidationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "summary_invalidations_total",
		Help:      "Per-user summary invalidations triggered by record changes, by record type.",
	}, []string{"record_type"})

	rejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "record_changes_rejected_total",
		Help:      "record.changed events that could not be applied, by reason.",
	}, []string{"reason"})

	lastChangeGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "last_change_timestamp_seconds",
		Help:      "Broker timestamp of the latest change event handled, per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(processedCounter, handlerErrorCounter, decodeErrorCounter, ignoredCounter,
		invalidationCounter, rejectedCounter, lastChangeGauge)
}

func recordProcessed(msg Message) {
	processedCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
	if !msg.Timestamp.IsZero() {
		lastChangeGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordHandlerError(msg Message) {
	handlerErrorCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}

func recordIgnored(eventType string) {
	ignoredCounter.WithLabelValues(eventType).Inc()
}

func recordInvalidation(recordType events.RecordType) {
	if recordType == "" {
		recordType = "unknown"
	}
	invalidationCounter.WithLabelValues(string(recordType)).Inc()
}

func recordRejected(reason string) {
	rejectedCounter.WithLabelValues(reason).Inc()
}
