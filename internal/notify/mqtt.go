package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/loewekordel/temperature-notifier/internal/config"
)

// MQTT publishes alert events to a broker topic so home-automation
// consumers can react to them. The connection is established on the
// first publish; most invocations never dispatch, and an unreachable
// broker must not fail runs that send nothing.
type MQTT struct {
	opts   *mqtt.ClientOptions
	broker string
	client mqtt.Client
	topic  string
	lg     *slog.Logger
}

// NewMQTT returns the notifier. No broker connection is made yet.
func NewMQTT(cfg config.Notifier, lg *slog.Logger) *MQTT {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	if cfg.ClientID != "" {
		opts.SetClientID(cfg.ClientID)
	}
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectTimeout(10 * time.Second)

	return &MQTT{opts: opts, broker: cfg.Broker, topic: cfg.Topic, lg: lg}
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) connect() error {
	if m.client == nil {
		m.client = mqtt.NewClient(m.opts)
	}
	if m.client.IsConnected() {
		return nil
	}
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect mqtt broker %s: %w", m.broker, token.Error())
	}
	return nil
}

// Send publishes the alert event as JSON with QoS 1, connecting first
// if needed.
func (m *MQTT) Send(ctx context.Context, title, message string) error {
	if err := m.connect(); err != nil {
		return err
	}

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

	token := m.client.Publish(m.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish alert to %s: %w", m.topic, err)
	}
	m.lg.Debug("alert published to mqtt", "topic", m.topic, "id", event.ID)
	return nil
}

func (m *MQTT) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}
