package mqtt

// EventKind identifies a session event.
type EventKind int

// Session event kinds.
const (
	// KindConnected is emitted when the session reaches Connected,
	// both on the initial connection and on every reconnect.
	KindConnected EventKind = iota

	// KindDisconnected is emitted when an established connection is lost.
	// Reason carries the transport's description of why.
	KindDisconnected

	// KindAcknowledged is emitted when the broker has acknowledged the
	// publication identified by TrackingID.
	KindAcknowledged

	// KindMessage is emitted for inbound messages on subscribed topics.
	// Unused by the telemetry pipeline but part of the session contract.
	KindMessage

	// KindTransportError is emitted for TLS, authentication, and network
	// failures. Recovery is the transport's responsibility; consumers
	// only log these.
	KindTransportError
)

// String returns the human-readable event kind.
func (k EventKind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindDisconnected:
		return "disconnected"
	case KindAcknowledged:
		return "acknowledged"
	case KindMessage:
		return "message"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Event is one typed session event.
//
// Events flow over a channel instead of cross-goroutine callbacks so the
// main loop observes Connected/Disconnected transitions in order relative
// to its own publish attempts. Only the fields relevant to Kind are set.
type Event struct {
	Kind       EventKind
	TrackingID uint32 // KindAcknowledged
	Topic      string // KindMessage
	Payload    []byte // KindMessage
	Reason     string // KindDisconnected
	Err        error  // KindTransportError
}

// eventBufferSize bounds the event stream. Transport callbacks must never
// block, so on overflow the oldest event is dropped and a warning logged.
const eventBufferSize = 64

// Events returns the session event stream.
//
// The channel is buffered and never closed; consumers should drain it with
// non-blocking receives (the scheduler drains once per cycle). When the
// buffer is full the oldest event is discarded: bounded staleness rather
// than unbounded backlog.
func (c *Client) Events() <-chan Event {
	return c.events
}

// emit delivers an event without ever blocking the transport goroutine.
func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
		return
	default:
	}

	// Buffer full: discard the oldest event to make room.
	select {
	case <-c.events:
	default:
	}
	select {
	case c.events <- ev:
	default:
	}

	if logger := c.getLogger(); logger != nil {
		logger.Warn("session event stream overflow, oldest event dropped",
			"kind", ev.Kind.String(),
		)
	}
}
