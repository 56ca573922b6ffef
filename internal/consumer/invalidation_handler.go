package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"example.com/progress/internal/cache"
	"example.com/progress/internal/events"
)

// InvalidationHandler drops a user's cached summaries when one of their records changes.
type InvalidationHandler struct {
	invalidator cache.Invalidator
	logger      logrus.FieldLogger
}

// NewInvalidationHandler constructs a handler. A nil invalidator disables invalidation.
func NewInvalidationHandler(invalidator cache.Invalidator, logger logrus.FieldLogger) *InvalidationHandler {
	if invalidator == nil {
		invalidator = cache.Noop{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &InvalidationHandler{invalidator: invalidator, logger: logger}
}

// Handle implements Handler. Events other than record.changed are acknowledged and ignored.
func (h *InvalidationHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.EventTypeRecordChanged {
		recordIgnored(msg.EventType)
		return nil
	}

	var evt events.RecordChanged
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		recordRejected(rejectPayload)
		return fmt.Errorf("decode record.changed: %w", err)
	}
	if evt.TenantID == "" {
		evt.TenantID = msg.TenantID
	}
	if msg.TenantID != "" && evt.TenantID != msg.TenantID {
		recordRejected(rejectTenantMismatch)
		return fmt.Errorf("tenant mismatch: header %q payload %q", msg.TenantID, evt.TenantID)
	}
	if evt.TenantID == "" || evt.UserID == "" {
		recordRejected(rejectMissingSubject)
		return fmt.Errorf("record.changed without tenant or user (record_id=%s)", evt.RecordID)
	}

	if err := h.invalidator.InvalidateUser(ctx, evt.TenantID, evt.UserID); err != nil {
		recordRejected(rejectCache)
		return fmt.Errorf("invalidate summaries: %w", err)
	}
	recordInvalidation(evt.RecordType)
	h.logger.WithFields(logrus.Fields{
		"tenant_id":   evt.TenantID,
		"user_id":     evt.UserID,
		"record_type": evt.RecordType,
		"record_id":   evt.RecordID,
	}).Debug("invalidated progress summaries")
	return nil
}
