package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
influxdb:
  url: http://localhost:8086
  token: secret
  org: home
  bucket: sensors
  measurements:
    indoor:
      name: living_room
      field: temperature
    outdoor:
      name: garden
      field: temperature
notifiers:
  - type: simplepush
    key: abc123
notification:
  min_indoor_temperature: 18
  rapid_change_event:
    rise: 8
    drop: 8
    window_minutes: 60
  reenable:
    cooldown_minutes: 30
    min_rise_between_notifications: 2
arming:
  temperature_delta: 5
  time: "12:30"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8086", cfg.InfluxDB.URL)
	assert.Equal(t, "sensors", cfg.InfluxDB.Bucket)
	assert.Equal(t, defaultLookbackMinutes, cfg.InfluxDB.LookbackMinutes)
	assert.Equal(t, "living_room", cfg.InfluxDB.Measurements.Indoor.Name)
	require.Len(t, cfg.Notifiers, 1)
	assert.Equal(t, KindSimplePush, cfg.Notifiers[0].Type)
	assert.Equal(t, 18.0, cfg.Notification.MinIndoorTemperature)
	assert.Equal(t, 60, cfg.Notification.RapidChangeEvent.WindowMinutes)
	require.NotNil(t, cfg.Arming.TemperatureDelta)
	assert.Equal(t, 5.0, *cfg.Arming.TemperatureDelta)
	require.NotNil(t, cfg.Arming.Time)
	assert.Equal(t, 12*60+30, cfg.Arming.Time.MinuteOfDay())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML+"\nextra_section:\n  foo: 1\n"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownNotifierKind(t *testing.T) {
	bad := `
influxdb:
  url: http://localhost:8086
  token: secret
  org: home
  bucket: sensors
  measurements:
    indoor: {name: a, field: f}
    outdoor: {name: b, field: f}
notifiers:
  - type: pigeon
notification:
  min_indoor_temperature: 18
  rapid_change_event: {rise: 8, drop: 8, window_minutes: 60}
  reenable: {cooldown_minutes: 30, min_rise_between_notifications: 2}
arming:
  temperature_delta: 5
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown notifier type")
}

func TestLoadRequiresArmingCondition(t *testing.T) {
	bad := `
influxdb:
  url: http://localhost:8086
  token: secret
  org: home
  bucket: sensors
  measurements:
    indoor: {name: a, field: f}
    outdoor: {name: b, field: f}
notifiers:
  - type: simplepush
    key: abc
notification:
  min_indoor_temperature: 18
  rapid_change_event: {rise: 8, drop: 8, window_minutes: 60}
  reenable: {cooldown_minutes: 30, min_rise_between_notifications: 2}
arming: {}
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arming requires")
}

func TestLoadRequiresInfluxToken(t *testing.T) {
	bad := `
influxdb:
  url: http://localhost:8086
  org: home
  bucket: sensors
  measurements:
    indoor: {name: a, field: f}
    outdoor: {name: b, field: f}
notifiers:
  - type: simplepush
    key: abc
notification:
  min_indoor_temperature: 18
  rapid_change_event: {rise: 8, drop: 8, window_minutes: 60}
  reenable: {cooldown_minutes: 30, min_rise_between_notifications: 2}
arming:
  temperature_delta: 5
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "influxdb.token")
}

func TestLoadRejectsBadArmingTime(t *testing.T) {
	bad := `
influxdb:
  url: http://localhost:8086
  token: secret
  org: home
  bucket: sensors
  measurements:
    indoor: {name: a, field: f}
    outdoor: {name: b, field: f}
notifiers:
  - type: simplepush
    key: abc
notification:
  min_indoor_temperature: 18
  rapid_change_event: {rise: 8, drop: 8, window_minutes: 60}
  reenable: {cooldown_minutes: 30, min_rise_between_notifications: 2}
arming:
  time: "25:00"
`
	_, err := Load(writeConfig(t, bad))
	assert.Error(t, err)
}

func TestNotifierValidatePerKind(t *testing.T) {
	assert.Error(t, Notifier{Type: KindSimplePush}.validate())
	assert.NoError(t, Notifier{Type: KindSimplePush, Key: "k"}.validate())

	assert.Error(t, Notifier{Type: KindMQTT, Broker: "tcp://h:1883"}.validate())
	assert.NoError(t, Notifier{Type: KindMQTT, Broker: "tcp://h:1883", Topic: "alerts"}.validate())

	assert.Error(t, Notifier{Type: KindKafka, Topic: "alerts"}.validate())
	assert.NoError(t, Notifier{Type: KindKafka, Brokers: []string{"h:9092"}, Topic: "alerts"}.validate())
}

func TestParseClockTime(t *testing.T) {
	ct, err := ParseClockTime("07:05")
	require.NoError(t, err)
	assert.Equal(t, 7, ct.Hour)
	assert.Equal(t, 5, ct.Minute)
	assert.Equal(t, "07:05", ct.String())

	for _, bad := range []string{"7", "24:00", "12:60", "ab:cd", ""} {
		_, err := ParseClockTime(bad)
		assert.Error(t, err, bad)
	}
}
