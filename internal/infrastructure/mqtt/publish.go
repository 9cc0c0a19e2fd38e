package mqtt

import (
	"fmt"
	"time"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish hands a serialized payload to the session for delivery.
//
// The call is non-blocking and fire-and-forget: it returns a locally
// generated tracking identifier immediately and never waits for the broker.
// The broker's acknowledgment (or a transport failure) arrives later on the
// event stream as KindAcknowledged / KindTransportError carrying the same
// tracking identifier.
//
// A publication is accepted only while the session is Connected. Otherwise
// the call fails immediately with ErrNotConnected and no identifier is
// issued; the caller decides whether to drop or surface it. The session
// never queues on the caller's behalf.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "casa/Cocina/corriente")
//   - payload: The already-serialized message payload (opaque bytes, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2); the telemetry pipeline
//     always requests 1 (at least once)
//
// Returns:
//   - uint32: Tracking identifier (never 0 on success)
//   - error: nil on hand-off, or a wrapped error describing the rejection
func (c *Client) Publish(topic string, payload []byte, qos byte) (uint32, error) {
	// Validate inputs
	if topic == "" {
		return 0, ErrInvalidTopic
	}
	if qos > maxQoS {
		return 0, ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return 0, fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	// Check connection state
	if !c.IsConnected() {
		return 0, ErrNotConnected
	}

	id := c.nextID.Add(1)

	c.pendingMu.Lock()
	c.pending[id] = pendingPublication{
		topic:    topic,
		qos:      qos,
		enqueued: time.Now(),
	}
	c.pendingMu.Unlock()

	// Retain flag is never set: telemetry samples are a stream, not state.
	token := c.client.Publish(topic, qos, false, payload)
	go c.trackPublication(id, token)

	return id, nil
}

// trackPublication waits for the broker's acknowledgment of one publication
// and resolves it on the event stream. Runs on its own goroutine so Publish
// never blocks.
func (c *Client) trackPublication(id uint32, token pahoToken) {
	if !token.WaitTimeout(defaultPublishTimeout) {
		c.resolvePending(id)
		c.emit(Event{
			Kind:       KindTransportError,
			TrackingID: id,
			Err:        fmt.Errorf("%w: no acknowledgment within %v", ErrPublishFailed, defaultPublishTimeout),
		})
		return
	}

	if err := token.Error(); err != nil {
		c.resolvePending(id)
		c.emit(Event{
			Kind:       KindTransportError,
			TrackingID: id,
			Err:        fmt.Errorf("%w: %w", ErrPublishFailed, err),
		})
		return
	}

	c.resolvePending(id)
	c.emit(Event{Kind: KindAcknowledged, TrackingID: id})
}

// resolvePending discards the pending entry for a resolved publication.
func (c *Client) resolvePending(id uint32) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// pahoToken is the subset of paho's Token used by publication tracking.
// Narrowed to an interface so tests can resolve publications synthetically.
type pahoToken interface {
	WaitTimeout(time.Duration) bool
	Error() error
}
