package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/loewekordel/temperature-notifier/internal/config"
)

// Kafka publishes alert events to a topic on the platform bus.
type Kafka struct {
	writer *kafka.Writer
	lg     *slog.Logger
}

// NewKafka returns a notifier writing to the configured topic. The
// writer connects lazily on the first publish.
func NewKafka(cfg config.Notifier, lg *slog.Logger) *Kafka {
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
	return &Kafka{writer: w, lg: lg}
}

func (k *Kafka) Name() string { return "kafka" }

// Send writes the alert event keyed by its ID.
func (k *Kafka) Send(ctx context.Context, title, message string) error {
	event := AlertEvent{
		ID:      uuid.NewString(),
		Time:    time.Now(),
		Title:   title,
		Message: message,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode alert event: %w", err)
	}

	msg := kafka.Message{Key: []byte(event.ID), Value: payload, Time: event.Time}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write alert to %s: %w", k.writer.Topic, err)
	}
	k.lg.Debug("alert published to kafka", "topic", k.writer.Topic, "id", event.ID)
	return nil
}

func (k *Kafka) Close() error { return k.writer.Close() }
