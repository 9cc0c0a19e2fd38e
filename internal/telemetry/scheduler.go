package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/mqtt"
	"github.com/casagrid/corriente-bridge/internal/infrastructure/serial"
)

// Phase is the scheduler's current position in its cycle. Exposed for
// observability; the scheduler itself never branches on it.
type Phase int32

const (
	// PhaseIdle means the scheduler is sleeping between cycles.
	PhaseIdle Phase = iota

	// PhaseReading means the scheduler is waiting on the serial port.
	PhaseReading

	// PhasePublishing means the scheduler is sending the cycle's readings.
	PhasePublishing
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReading:
		return "reading"
	case PhasePublishing:
		return "publishing"
	default:
		return "unknown"
	}
}

// SchedulerOptions carries the scheduler's collaborators and tuning.
type SchedulerOptions struct {
	// Port is the serial port to sample each cycle.
	Port serial.Port

	// Multiplexer assembles each cycle's readings.
	Multiplexer *Multiplexer

	// Publisher sends each reading to the broker.
	Publisher *Publisher

	// Events is the session manager's event stream. Drained once per
	// cycle for logging; may be nil.
	Events <-chan mqtt.Event

	// Interval is the pause between cycles.
	Interval time.Duration

	// BufferSize is the serial read buffer size in bytes.
	BufferSize int
}

// Scheduler drives the telemetry pipeline: read the serial port, parse,
// multiplex, publish, sleep, repeat.
//
// Each cycle is bounded. The serial read returns within the port's
// configured timeout, publishes hand off to the session manager without
// waiting for acknowledgement, and the inter-cycle sleep is interruptible.
// Cancelling the context therefore stops the scheduler promptly at any
// point in the cycle.
type Scheduler struct {
	port   serial.Port
	mux    *Multiplexer
	pub    *Publisher
	events <-chan mqtt.Event

	interval time.Duration
	bufSize  int

	logger Logger
	phase  atomic.Int32
}

// NewScheduler creates a Scheduler from its options.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	return &Scheduler{
		port:     opts.Port,
		mux:      opts.Multiplexer,
		pub:      opts.Publisher,
		events:   opts.Events,
		interval: opts.Interval,
		bufSize:  opts.BufferSize,
		logger:   nopLogger{},
	}
}

// SetLogger attaches a logger for cycle reporting.
func (s *Scheduler) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Phase returns the scheduler's current phase.
func (s *Scheduler) Phase() Phase {
	return Phase(s.phase.Load())
}

// Run executes cycles until the context is cancelled, then returns nil.
// A failed cycle never stops the loop; every error is contained to the
// reading or cycle it occurred in.
func (s *Scheduler) Run(ctx context.Context) error {
	buf := make([]byte, s.bufSize)

	for {
		s.runCycle(buf)
		s.drainEvents()

		s.setPhase(PhaseIdle)
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "dropped_total", s.pub.Dropped())
			return nil
		case <-time.After(s.interval):
		}
	}
}

// runCycle performs one read-parse-multiplex-publish pass.
func (s *Scheduler) runCycle(buf []byte) {
	s.setPhase(PhaseReading)
	serialValue := s.readSerial(buf)

	s.setPhase(PhasePublishing)
	for _, r := range s.mux.Cycle(serialValue) {
		id, err := s.pub.Publish(r)
		if err != nil {
			// Drops are already counted and logged by the publisher.
			if !errors.Is(err, mqtt.ErrNotConnected) {
				s.logger.Warn("publish failed",
					"channel", r.Channel,
					"error", err)
			}
			continue
		}
		s.logger.Debug("reading published",
			"channel", r.Channel,
			"value", r.Value,
			"tracking_id", id)
	}
}

// readSerial samples the serial port once and parses the frame. Returns
// nil when the read was quiet or the frame was unusable.
func (s *Scheduler) readSerial(buf []byte) *float64 {
	n, err := s.port.Read(buf)
	if err != nil {
		s.logger.Warn("serial read failed", "error", err)
		return nil
	}
	if n == 0 {
		// Quiet cycle: sensor said nothing within the read timeout.
		return nil
	}

	value, err := ParseFrame(buf[:n])
	if err != nil {
		if !errors.Is(err, ErrFrameEmpty) {
			s.logger.Warn("discarding frame", "error", err)
		}
		return nil
	}

	return &value
}

// drainEvents empties the session event stream without blocking, logging
// each event at a level matching its severity.
func (s *Scheduler) drainEvents() {
	if s.events == nil {
		return
	}

	for {
		select {
		case ev := <-s.events:
			s.logEvent(ev)
		default:
			return
		}
	}
}

func (s *Scheduler) logEvent(ev mqtt.Event) {
	switch ev.Kind {
	case mqtt.KindConnected:
		s.logger.Info("session established")
	case mqtt.KindDisconnected:
		s.logger.Warn("session lost", "reason", ev.Reason)
	case mqtt.KindAcknowledged:
		s.logger.Debug("publish acknowledged", "tracking_id", ev.TrackingID)
	case mqtt.KindTransportError:
		s.logger.Warn("session transport error",
			"tracking_id", ev.TrackingID,
			"error", ev.Err)
	default:
		s.logger.Debug("session event", "kind", ev.Kind.String())
	}
}

func (s *Scheduler) setPhase(p Phase) {
	s.phase.Store(int32(p))
}
