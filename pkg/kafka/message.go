package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Event *models.OrderCompletedEvent
}

// ParseOrderEvent parses the message value as an order-completed event
func (m *IncomingMessage) ParseOrderEvent() error {
	var event models.OrderCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("failed to parse order event: %w", err)
	}
	if event.EventType != "" && event.EventType != models.EventTypeOrderCompleted {
		return fmt.Errorf("unexpected event type %q", event.EventType)
	}
	m.Event = &event
	return nil
}
