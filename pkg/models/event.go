package models

import "time"

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Event types consumed and produced on the order pipeline
const (
	EventTypeOrderCompleted = "order.completed"
)

// OrderCompletedEvent is the envelope the checkout collaborator publishes when
// an order finishes. The embedded Purchase is already normalized.
type OrderCompletedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	OccurredAt    time.Time `json:"occurred_at"`
	Purchase      Purchase  `json:"purchase"`
}
