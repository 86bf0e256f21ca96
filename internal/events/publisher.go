// Package events publishes extraction lifecycle events to Kafka so that
// downstream consumers (indexers, notification services) can react to
// newly extracted articles.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/article-extraction-service/internal/domain"
	"github.com/helixir/article-extraction-service/internal/observability"
)

// Publisher publishes extraction events to a message broker.
type Publisher interface {
	// Publish sends one event. The event's ArticleID is used as the
	// message key, so events for the same article land on the same
	// partition in order.
	Publish(ctx context.Context, event *domain.ExtractionEvent) error

	// Close flushes buffered messages and releases resources.
	Close() error
}

// messageWriter is the subset of kafka.Writer the publisher uses.
// Extracted as an interface so tests can substitute a stub.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic extraction events are published to.
	Topic string
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration
}

// KafkaPublisher publishes extraction events to a Kafka topic.
type KafkaPublisher struct {
	writer  messageWriter
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewKafkaPublisher creates a publisher writing to the configured topic.
func NewKafkaPublisher(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaPublisher{
		writer:  writer,
		logger:  observability.WithComponent(logger, "events"),
		metrics: metrics,
	}
}

// Publish sends one event to Kafka.
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.ExtractionEvent) error {
	if event == nil {
		return domain.NewValidationError("event", "event cannot be nil")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ArticleID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		if p.metrics != nil {
			p.metrics.RecordEventFailed(event.EventType)
		}
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordEventPublished(event.EventType)
	}
	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("article_id", event.ArticleID).
		Msg("event published")

	return nil
}

// Close flushes buffered messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info().Msg("closing event publisher")
	return p.writer.Close()
}

// NopPublisher discards all events. Used when Kafka publishing is disabled.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(ctx context.Context, event *domain.ExtractionEvent) error {
	return nil
}

// Close is a no-op.
func (NopPublisher) Close() error {
	return nil
}

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)
