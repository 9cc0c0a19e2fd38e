// Package influxdb provides the optional local telemetry mirror.
//
// When enabled, every reading the bridge publishes is also written to a
// local InfluxDB bucket (measurement "corriente", tagged by channel). The
// mirror is strictly one-way and best-effort: writes are batched and
// asynchronous, failures only surface through the error callback, and
// nothing written here is ever replayed to the broker.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without local history
//	}
//	defer client.Close()
//
//	client.WriteCurrentSample("Cocina", 12.34, time.Now())
package influxdb
