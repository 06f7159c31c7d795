package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicProducts = "product_events"
	TopicOrders   = "order_events"
	TopicRefunds  = "refund_events"
	TopicShifts   = "shift_events"
	TopicDevices  = "pos_device_jobs"

	publishTimeout = 5 * time.Second
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &Producer{writer: w}, nil
}

func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: data, Time: time.Now().UTC()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: json.Marshal failed: %w", err)
	}
	l.InfoContext(ctx, "event_published", "topic", topic, "key", key, "payload", string(data))
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// NewPublisher returns a Kafka producer when brokers are set, a log publisher otherwise.
func NewPublisher(brokers []string, logger *slog.Logger) (Publisher, error) {
	if len(brokers) == 0 {
		return &LogPublisher{Logger: logger}, nil
	}
	return NewProducer(brokers)
}
