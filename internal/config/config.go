// Package config loads and validates the YAML configuration consumed by
// the temperature notifier.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NotifierKind discriminates the supported notification channels.
type NotifierKind string

const (
	KindSimplePush NotifierKind = "simplepush"
	KindMQTT       NotifierKind = "mqtt"
	KindKafka      NotifierKind = "kafka"
)

// Measurement names a measurement/field pair in the time-series store.
type Measurement struct {
	Name  string `yaml:"name"`
	Field string `yaml:"field"`
}

// Measurements holds the two measurements the notifier compares.
type Measurements struct {
	Indoor  Measurement `yaml:"indoor"`
	Outdoor Measurement `yaml:"outdoor"`
}

// InfluxDB holds connection info for the time-series store.
type InfluxDB struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
	// LookbackMinutes bounds the "most recent sample" query; samples
	// older than this count as absent. Defaults to one day.
	LookbackMinutes int          `yaml:"lookback_minutes"`
	Measurements    Measurements `yaml:"measurements"`
}

// Notifier configures one notification channel. Type selects the kind;
// the remaining fields are the credential payload of that kind.
type Notifier struct {
	Type NotifierKind `yaml:"type"`

	// simplepush
	Key string `yaml:"key,omitempty"`

	// mqtt
	Broker   string `yaml:"broker,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// mqtt and kafka
	Topic string `yaml:"topic,omitempty"`

	// kafka
	Brokers []string `yaml:"brokers,omitempty"`
}

// RapidChangeEvent configures the rise-then-drop detector.
type RapidChangeEvent struct {
	Rise          float64 `yaml:"rise"`
	Drop          float64 `yaml:"drop"`
	WindowMinutes int     `yaml:"window_minutes"`
}

// Reenable configures when a new notification may follow a previous one.
type Reenable struct {
	CooldownMinutes             int     `yaml:"cooldown_minutes"`
	MinRiseBetweenNotifications float64 `yaml:"min_rise_between_notifications"`
}

// Notification holds the alerting thresholds.
type Notification struct {
	MinIndoorTemperature float64          `yaml:"min_indoor_temperature"`
	RapidChangeEvent     RapidChangeEvent `yaml:"rapid_change_event"`
	Reenable             Reenable         `yaml:"reenable"`
}

// Arming configures the conditions that latch the notifier. At least
// one of the two must be set.
type Arming struct {
	TemperatureDelta *float64   `yaml:"temperature_delta"`
	Time             *ClockTime `yaml:"time"`
}

// Config is the validated top-level configuration.
type Config struct {
	InfluxDB     InfluxDB     `yaml:"influxdb"`
	Notifiers    []Notifier   `yaml:"notifiers"`
	Notification Notification `yaml:"notification"`
	Arming       Arming       `yaml:"arming"`
}

const defaultLookbackMinutes = 1440

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open configuration file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %s: %w", path, err)
	}

	if cfg.InfluxDB.LookbackMinutes == 0 {
		cfg.InfluxDB.LookbackMinutes = defaultLookbackMinutes
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.InfluxDB.URL == "" {
		return fmt.Errorf("influxdb.url is required")
	}
	if !strings.HasPrefix(c.InfluxDB.URL, "http://") && !strings.HasPrefix(c.InfluxDB.URL, "https://") {
		return fmt.Errorf("influxdb.url must be an http(s) URL, got %q", c.InfluxDB.URL)
	}
	if c.InfluxDB.Token == "" {
		return fmt.Errorf("influxdb.token is required")
	}
	if c.InfluxDB.Org == "" {
		return fmt.Errorf("influxdb.org is required")
	}
	if c.InfluxDB.Bucket == "" {
		return fmt.Errorf("influxdb.bucket is required")
	}
	if c.InfluxDB.LookbackMinutes < 0 {
		return fmt.Errorf("influxdb.lookback_minutes must not be negative")
	}
	if err := c.InfluxDB.Measurements.Indoor.validate("influxdb.measurements.indoor"); err != nil {
		return err
	}
	if err := c.InfluxDB.Measurements.Outdoor.validate("influxdb.measurements.outdoor"); err != nil {
		return err
	}

	if len(c.Notifiers) == 0 {
		return fmt.Errorf("at least one notifier must be configured")
	}
	for i, n := range c.Notifiers {
		if err := n.validate(); err != nil {
			return fmt.Errorf("notifiers[%d]: %w", i, err)
		}
	}

	n := c.Notification
	if n.RapidChangeEvent.WindowMinutes <= 0 {
		return fmt.Errorf("notification.rapid_change_event.window_minutes must be positive")
	}
	if n.RapidChangeEvent.Rise < 0 || n.RapidChangeEvent.Drop < 0 {
		return fmt.Errorf("notification.rapid_change_event rise and drop must not be negative")
	}
	if n.Reenable.CooldownMinutes < 0 {
		return fmt.Errorf("notification.reenable.cooldown_minutes must not be negative")
	}
	if n.Reenable.MinRiseBetweenNotifications < 0 {
		return fmt.Errorf("notification.reenable.min_rise_between_notifications must not be negative")
	}

	if c.Arming.TemperatureDelta == nil && c.Arming.Time == nil {
		return fmt.Errorf("arming requires temperature_delta or time (or both)")
	}
	return nil
}

func (m Measurement) validate(prefix string) error {
	if m.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if m.Field == "" {
		return fmt.Errorf("%s.field is required", prefix)
	}
	return nil
}

func (n Notifier) validate() error {
	switch n.Type {
	case KindSimplePush:
		if n.Key == "" {
			return fmt.Errorf("simplepush notifier requires key")
		}
	case KindMQTT:
		if n.Broker == "" {
			return fmt.Errorf("mqtt notifier requires broker")
		}
		if n.Topic == "" {
			return fmt.Errorf("mqtt notifier requires topic")
		}
	case KindKafka:
		if len(n.Brokers) == 0 {
			return fmt.Errorf("kafka notifier requires brokers")
		}
		if n.Topic == "" {
			return fmt.Errorf("kafka notifier requires topic")
		}
	default:
		return fmt.Errorf("unknown notifier type %q", n.Type)
	}
	return nil
}
