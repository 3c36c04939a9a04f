package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/models"
)

func TestParseOrderEvent(t *testing.T) {
	msg := &IncomingMessage{
		Value: []byte(`{
			"event_id": "evt-1",
			"event_type": "order.completed",
			"schema_version": "1.0",
			"occurred_at": "2025-06-01T12:00:00Z",
			"purchase": {
				"userId": "buyer@example.com",
				"orderId": "order-1001",
				"products": [
					{"productId": "prod-1", "title": "Widget", "quantity": 2, "price": "9.99"}
				],
				"total": "19.98",
				"timestamp": "2025-06-01T12:00:00Z"
			}
		}`),
	}

	err := msg.ParseOrderEvent()
	require.NoError(t, err)
	require.NotNil(t, msg.Event)

	assert.Equal(t, "evt-1", msg.Event.EventID)
	assert.Equal(t, models.EventTypeOrderCompleted, msg.Event.EventType)
	assert.Equal(t, "order-1001", msg.Event.Purchase.OrderID)
	assert.Len(t, msg.Event.Purchase.Products, 1)
	assert.Equal(t, 2, msg.Event.Purchase.Products[0].Quantity)
}

func TestParseOrderEvent_InvalidJSON(t *testing.T) {
	msg := &IncomingMessage{Value: []byte(`{not json`)}

	err := msg.ParseOrderEvent()
	assert.Error(t, err)
	assert.Nil(t, msg.Event)
}

func TestParseOrderEvent_WrongEventType(t *testing.T) {
	msg := &IncomingMessage{Value: []byte(`{"event_type": "order.cancelled"}`)}

	err := msg.ParseOrderEvent()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "order.cancelled")
}

func TestParseOrderEvent_MissingEventTypeIsTolerated(t *testing.T) {
	// Producers older than the envelope format publish the bare purchase
	// fields without an event_type.
	msg := &IncomingMessage{Value: []byte(`{"purchase": {"orderId": "order-1"}}`)}

	err := msg.ParseOrderEvent()
	assert.NoError(t, err)
	assert.Equal(t, "order-1", msg.Event.Purchase.OrderID)
}
