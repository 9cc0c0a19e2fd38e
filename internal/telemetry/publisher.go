package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/mqtt"
)

// SessionPublisher is the slice of the session manager the publisher
// needs. Satisfied by *mqtt.Client.
type SessionPublisher interface {
	// Publish sends a payload and returns a tracking ID, or
	// mqtt.ErrNotConnected when no session is established.
	Publish(topic string, payload []byte, qos byte) (uint32, error)
}

// Mirror receives a best-effort copy of every published reading.
// Satisfied by *influxdb.Client.
type Mirror interface {
	WriteCurrentSample(channel string, amps float64, ts time.Time)
}

// Publisher turns readings into broker publications.
//
// It owns the wire representation (topic layout and payload encoding) and
// the drop policy: a reading that cannot be sent because no session is
// established is counted and discarded, never queued. Readings are
// point-in-time samples; delivering them late is worse than not
// delivering them at all.
type Publisher struct {
	session SessionPublisher
	mirror  Mirror
	topics  mqtt.Topics
	qos     byte
	logger  Logger
	dropped atomic.Uint64
}

// NewPublisher creates a Publisher bound to a session.
//
// Parameters:
//   - session: the session manager to publish through
//   - qos: QoS level for every publication
func NewPublisher(session SessionPublisher, qos byte) *Publisher {
	return &Publisher{
		session: session,
		qos:     qos,
		logger:  nopLogger{},
	}
}

// SetLogger attaches a logger for drop and failure reporting.
func (p *Publisher) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// SetMirror attaches an optional local telemetry mirror. Every reading
// accepted by the session is also written to the mirror.
func (p *Publisher) SetMirror(mirror Mirror) {
	p.mirror = mirror
}

// Publish sends one reading to the broker.
//
// Returns the session tracking ID on acceptance. When no session is
// established the reading is dropped: the drop counter is incremented,
// a warning is logged, and mqtt.ErrNotConnected is returned so the
// caller can tell a drop from a hard failure.
func (p *Publisher) Publish(r Reading) (uint32, error) {
	topic, err := p.topicFor(r.Channel)
	if err != nil {
		return 0, err
	}

	payload := formatPayload(r)

	id, err := p.session.Publish(topic, payload, p.qos)
	if err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			p.dropped.Add(1)
			p.logger.Warn("reading dropped, no session",
				"channel", r.Channel,
				"dropped_total", p.dropped.Load())
		}
		return 0, err
	}

	if p.mirror != nil {
		p.mirror.WriteCurrentSample(r.Channel, r.Value, time.Unix(r.Timestamp, 0))
	}

	return id, nil
}

// Dropped returns the number of readings discarded because no session
// was established at publish time.
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

// topicFor renders the channel name into its publish topic.
func (p *Publisher) topicFor(channel string) (string, error) {
	if channel == "" || strings.ContainsAny(channel, "/+#") {
		return "", fmt.Errorf("%w: %q", ErrTopicFormat, channel)
	}
	return p.topics.Current(channel), nil
}

// formatPayload encodes a reading as the fixed wire payload. The value
// is always rendered with exactly two decimal places.
func formatPayload(r Reading) []byte {
	return fmt.Appendf(nil, `{"ts":%d,"I":%.2f}`, r.Timestamp, r.Value)
}
