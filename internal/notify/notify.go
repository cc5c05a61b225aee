// Package notify implements the notification channels an alert is
// dispatched through.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loewekordel/temperature-notifier/internal/config"
)

// Notifier delivers a single user-facing alert through one channel.
type Notifier interface {
	// Name identifies the channel kind in logs and error messages.
	Name() string
	Send(ctx context.Context, title, message string) error
	Close() error
}

// AlertEvent is the structured payload published on broker-backed
// channels (MQTT, Kafka). Push channels only carry title and message.
type AlertEvent struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

// Build constructs one Notifier per configured channel. The switch is
// exhaustive over the supported kinds; validation has already rejected
// anything else.
func Build(cfgs []config.Notifier, lg *slog.Logger) ([]Notifier, error) {
	notifiers := make([]Notifier, 0, len(cfgs))
	for _, c := range cfgs {
		switch c.Type {
		case config.KindSimplePush:
			notifiers = append(notifiers, NewSimplePush(c.Key, lg))
		case config.KindMQTT:
			notifiers = append(notifiers, NewMQTT(c, lg))
		case config.KindKafka:
			notifiers = append(notifiers, NewKafka(c, lg))
		default:
			closeAll(notifiers, lg)
			return nil, fmt.Errorf("unsupported notifier type %q", c.Type)
		}
	}
	return notifiers, nil
}

func closeAll(notifiers []Notifier, lg *slog.Logger) {
	for _, n := range notifiers {
		if err := n.Close(); err != nil {
			lg.Warn("notifier close failed", "channel", n.Name(), "error", err)
		}
	}
}
