package kafka

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// Producer ships unprocessable order events to the dead-letter topic
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// PublishDeadLetter forwards the original message to the dead-letter topic
// with the failure reason attached as a header.
func (p *Producer) PublishDeadLetter(ctx context.Context, original *IncomingMessage, reason string) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDeadLetter")
	defer span.End()

	key := original.Key
	if key == "" {
		key = uuid.New().String()
	}

	headers := []kafka.Header{
		{Key: "dlq_reason", Value: []byte(reason)},
		{Key: "source_topic", Value: []byte(original.Topic)},
	}
	for k, v := range original.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   original.Value,
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"topic":  p.topic,
			"reason": reason,
		}).Error("Failed to publish dead-letter message")
		return err
	}

	return nil
}

// Close flushes and closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
