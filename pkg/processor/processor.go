// Package processor feeds order-completed events from Kafka into the purchase
// ingestion pipeline. Unprocessable events go to the dead-letter topic;
// transient store failures leave the offset uncommitted for redelivery.
package processor

import (
	"context"
	"errors"

	"github.com/Gobusters/ectologger"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/graph"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/kafka"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/metrics"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/models"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

// Recorder commits one purchase to the graph
type Recorder interface {
	Record(ctx context.Context, purchase *models.Purchase) error
}

// DeadLetterer ships an unprocessable message to the dead-letter topic
type DeadLetterer interface {
	PublishDeadLetter(ctx context.Context, original *kafka.IncomingMessage, reason string) error
}

// Processor handles order-completed messages
type Processor struct {
	logger   ectologger.Logger
	recorder Recorder
	dlq      DeadLetterer
}

// NewProcessor creates a new order-event processor
func NewProcessor(logger ectologger.Logger, recorder Recorder, dlq DeadLetterer) *Processor {
	return &Processor{
		logger:   logger,
		recorder: recorder,
		dlq:      dlq,
	}
}

// HandleMessage processes one order-completed message. A nil return commits
// the offset; an error return requests redelivery.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleMessage")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	if err := msg.ParseOrderEvent(); err != nil {
		log.WithError(err).Error("Unparseable order event, dead-lettering")
		metrics.EventsProcessedTotal.WithLabelValues("unparseable").Inc()
		return p.deadLetter(ctx, msg, "unparseable: "+err.Error())
	}

	purchase := msg.Event.Purchase
	log = log.WithField("order_id", purchase.OrderID)

	err := p.recorder.Record(ctx, &purchase)
	if err == nil {
		log.Debug("Order event recorded")
		metrics.EventsProcessedTotal.WithLabelValues("recorded").Inc()
		return nil
	}

	var dupErr *graph.DuplicateOrderError
	if errors.As(err, &dupErr) {
		// Redelivery of an already-committed purchase. Done, commit the offset.
		log.Debug("Order already recorded, skipping")
		metrics.EventsProcessedTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	var valErr *graph.ValidationError
	if errors.As(err, &valErr) {
		// Permanent failure; redelivery cannot fix the payload.
		log.WithError(err).Error("Invalid order event, dead-lettering")
		metrics.EventsProcessedTotal.WithLabelValues("invalid").Inc()
		return p.deadLetter(ctx, msg, "invalid: "+valErr.Reason)
	}

	// Transient (store unreachable or timed out): leave uncommitted.
	log.WithError(err).Error("Failed to record order event (will retry)")
	metrics.EventsProcessedTotal.WithLabelValues("retry").Inc()
	return err
}

func (p *Processor) deadLetter(ctx context.Context, msg *kafka.IncomingMessage, reason string) error {
	if p.dlq == nil {
		return nil
	}
	if err := p.dlq.PublishDeadLetter(ctx, msg, reason); err != nil {
		// Keep the offset uncommitted so the event is not lost.
		return err
	}
	metrics.EventsDeadLetteredTotal.WithLabelValues(reasonLabel(reason)).Inc()
	return nil
}

func reasonLabel(reason string) string {
	for i := 0; i < len(reason); i++ {
		if reason[i] == ':' {
			return reason[:i]
		}
	}
	return reason
}
