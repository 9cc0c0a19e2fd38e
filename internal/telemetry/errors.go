package telemetry

import "errors"

// Domain-specific errors for the telemetry pipeline.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrFrameEmpty indicates a zero-length serial frame (a quiet read).
	ErrFrameEmpty = errors.New("telemetry: empty frame")

	// ErrFrameMalformed indicates a serial frame that does not match the
	// sensor's fixed line format. The frame is logged and discarded; the
	// cycle continues unaffected.
	ErrFrameMalformed = errors.New("telemetry: malformed frame")

	// ErrTopicFormat indicates a channel name that cannot be rendered
	// into a valid topic. Recoverable: the reading is dropped, the cycle
	// continues.
	ErrTopicFormat = errors.New("telemetry: cannot format topic for channel")
)
