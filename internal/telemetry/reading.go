package telemetry

// Reading is one telemetry sample: a measured (or synthesized) current
// value on a named channel at a point in time.
//
// Readings are immutable once constructed. Each is produced exactly once
// per cycle (by the frame parser for the serial channel, by the
// multiplexer for synthetic channels) and consumed exactly once by the
// publisher.
type Reading struct {
	// Channel is the logical measurement stream this sample belongs to.
	Channel string

	// Value is the measured current in amperes.
	Value float64

	// Timestamp is seconds since the Unix epoch.
	Timestamp int64
}
