package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations while the
	// session is not in the Connected state. Callers must not retry
	// internally; the publisher drops the reading and moves on.
	ErrNotConnected = errors.New("mqtt: session not connected")

	// ErrConnectionFailed is returned when the connection attempt cannot
	// even be started (configuration-class failures).
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrInvalidCA is returned when the trust anchor certificate cannot
	// be read or parsed.
	ErrInvalidCA = errors.New("mqtt: invalid trust anchor certificate")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty or invalid topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
