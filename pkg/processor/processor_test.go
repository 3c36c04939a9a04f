package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/graph"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/kafka"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/models"
)

type fakeRecorder struct {
	err      error
	recorded []*models.Purchase
}

func (r *fakeRecorder) Record(ctx context.Context, purchase *models.Purchase) error {
	r.recorded = append(r.recorded, purchase)
	return r.err
}

type fakeDLQ struct {
	err      error
	messages []*kafka.IncomingMessage
	reasons  []string
}

func (d *fakeDLQ) PublishDeadLetter(ctx context.Context, original *kafka.IncomingMessage, reason string) error {
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, original)
	d.reasons = append(d.reasons, reason)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func orderMessage() *kafka.IncomingMessage {
	return &kafka.IncomingMessage{
		Topic:     "order-completed",
		Partition: 0,
		Offset:    42,
		Value: []byte(`{
			"event_id": "evt-1",
			"event_type": "order.completed",
			"purchase": {
				"userId": "buyer@example.com",
				"orderId": "order-1001",
				"products": [{"productId": "prod-1", "quantity": 1, "price": "9.99"}],
				"total": "9.99",
				"timestamp": "2025-06-01T12:00:00Z"
			}
		}`),
	}
}

func TestHandleMessage_RecordsAndCommits(t *testing.T) {
	recorder := &fakeRecorder{}
	dlq := &fakeDLQ{}
	p := NewProcessor(testLogger(), recorder, dlq)

	err := p.HandleMessage(context.Background(), orderMessage())

	assert.NoError(t, err)
	assert.Len(t, recorder.recorded, 1)
	assert.Equal(t, "order-1001", recorder.recorded[0].OrderID)
	assert.Empty(t, dlq.messages)
}

func TestHandleMessage_DuplicateOrderCommits(t *testing.T) {
	recorder := &fakeRecorder{err: &graph.DuplicateOrderError{OrderID: "order-1001"}}
	dlq := &fakeDLQ{}
	p := NewProcessor(testLogger(), recorder, dlq)

	err := p.HandleMessage(context.Background(), orderMessage())

	// A redelivered, already-recorded order is done; committing the offset
	// must not be blocked and the event must not be dead-lettered.
	assert.NoError(t, err)
	assert.Empty(t, dlq.messages)
}

func TestHandleMessage_InvalidPurchaseDeadLetters(t *testing.T) {
	recorder := &fakeRecorder{err: &graph.ValidationError{Op: "record", Reason: "total is not numeric"}}
	dlq := &fakeDLQ{}
	p := NewProcessor(testLogger(), recorder, dlq)

	err := p.HandleMessage(context.Background(), orderMessage())

	assert.NoError(t, err)
	assert.Len(t, dlq.messages, 1)
	assert.Contains(t, dlq.reasons[0], "invalid")
}

func TestHandleMessage_UnparseableDeadLetters(t *testing.T) {
	recorder := &fakeRecorder{}
	dlq := &fakeDLQ{}
	p := NewProcessor(testLogger(), recorder, dlq)

	msg := &kafka.IncomingMessage{Topic: "order-completed", Value: []byte(`{broken`)}
	err := p.HandleMessage(context.Background(), msg)

	assert.NoError(t, err)
	assert.Empty(t, recorder.recorded)
	assert.Len(t, dlq.messages, 1)
	assert.Contains(t, dlq.reasons[0], "unparseable")
}

func TestHandleMessage_TransientFailureRequestsRedelivery(t *testing.T) {
	cause := &graph.ConnectionError{Op: "record", Err: errors.New("connection refused")}
	recorder := &fakeRecorder{err: cause}
	dlq := &fakeDLQ{}
	p := NewProcessor(testLogger(), recorder, dlq)

	err := p.HandleMessage(context.Background(), orderMessage())

	// The offset must stay uncommitted so the broker redelivers the event.
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, dlq.messages)
}

func TestHandleMessage_DLQPublishFailureRequestsRedelivery(t *testing.T) {
	recorder := &fakeRecorder{}
	dlq := &fakeDLQ{err: errors.New("broker unavailable")}
	p := NewProcessor(testLogger(), recorder, dlq)

	msg := &kafka.IncomingMessage{Topic: "order-completed", Value: []byte(`{broken`)}
	err := p.HandleMessage(context.Background(), msg)

	assert.Error(t, err)
}

func TestReasonLabel(t *testing.T) {
	assert.Equal(t, "invalid", reasonLabel("invalid: total is not numeric"))
	assert.Equal(t, "unparseable", reasonLabel("unparseable: bad json"))
	assert.Equal(t, "oops", reasonLabel("oops"))
}
