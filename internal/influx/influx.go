// Package influx queries the most recent temperature samples from
// InfluxDB.
package influx

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/loewekordel/temperature-notifier/internal/config"
)

// Client wraps the InfluxDB query API for single-value lookups.
type Client struct {
	client          influxdb2.Client
	query           api.QueryAPI
	bucket          string
	lookbackMinutes int
	lg              *slog.Logger
}

// New builds a client from the validated configuration.
func New(cfg config.InfluxDB, lg *slog.Logger) *Client {
	c := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Client{
		client:          c,
		query:           c.QueryAPI(cfg.Org),
		bucket:          cfg.Bucket,
		lookbackMinutes: cfg.LookbackMinutes,
		lg:              lg,
	}
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() { c.client.Close() }

// LastValue returns the most recent value for the measurement/field
// pair. found is false when no sample exists within the lookback; a
// query failure is returned as an error, distinct from absence.
func (c *Client) LastValue(ctx context.Context, m config.Measurement) (float64, bool, error) {
	flux := fmt.Sprintf(
		`from(bucket: %q) |> range(start: -%dm) |> filter(fn: (r) => r._measurement == %q and r._field == %q) |> last()`,
		c.bucket, c.lookbackMinutes, m.Name, m.Field,
	)

	result, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, false, fmt.Errorf("query measurement %q field %q: %w", m.Name, m.Field, err)
	}

	var (
		value float64
		found bool
	)
	for result.Next() {
		if found {
			continue // drain remaining tables
		}
		switch v := result.Record().Value().(type) {
		case float64:
			value, found = v, true
		case int64:
			value, found = float64(v), true
		default:
			return 0, false, fmt.Errorf("measurement %q field %q has non-numeric value %T", m.Name, m.Field, v)
		}
	}
	if err := result.Err(); err != nil {
		return 0, false, fmt.Errorf("read query result for measurement %q: %w", m.Name, err)
	}
	if !found {
		c.lg.Warn("no data found for measurement", "measurement", m.Name, "field", m.Field, "lookback_minutes", c.lookbackMinutes)
		return 0, false, nil
	}
	return value, true, nil
}
