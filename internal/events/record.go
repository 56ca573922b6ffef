// Package events defines the change-event payloads the progress service consumes.
package events

import "time"

// EventTypeRecordChanged is carried in the event_type header of change events.
const EventTypeRecordChanged = "record.changed"

// RecordType identifies which fitness table a change touched.
type RecordType string

const (
	RecordWorkout     RecordType = "workout"
	RecordMeasurement RecordType = "measurement"
	RecordGoal        RecordType = "goal"
	RecordCheckIn     RecordType = "check_in"
	RecordPoints      RecordType = "points_transaction"
)

// RecordChanged is emitted by the backend whenever a user's fitness row is written or removed.
type RecordChanged struct {
	TenantID   string     `json:"tenant_id"`
	UserID     string     `json:"user_id"`
	RecordType RecordType `json:"record_type"`
	RecordID   string     `json:"record_id"`
	Operation  string     `json:"operation,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
