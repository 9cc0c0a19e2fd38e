package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCurrentSample mirrors one published current reading.
//
// The write is non-blocking; samples are batched and sent asynchronously.
// The timestamp is the reading's own timestamp, not the write time, so the
// local history lines up with what the broker saw.
//
// Parameters:
//   - channel: Channel name (e.g., "Cocina")
//   - amps: Current in amperes
//   - ts: The reading's timestamp
//
// Example:
//
//	client.WriteCurrentSample("Cocina", 12.34, time.Unix(reading.Timestamp, 0))
func (c *Client) WriteCurrentSample(channel string, amps float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"corriente",
		map[string]string{
			"channel": channel,
		},
		map[string]interface{}{
			"amps": amps,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteCurrentSample.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
