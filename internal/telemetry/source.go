package telemetry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/config"
)

// ValueSource produces the raw material for synthetic channels: a stream
// of values in [0, 1) that the multiplexer scales into each channel's
// configured range.
//
// Implementations must be safe for use from a single goroutine; the
// scheduler is the only caller.
type ValueSource interface {
	// Next returns the next value in [0, 1).
	Next() float64
}

// randomSource is the production ValueSource, backed by a seeded PRNG.
type randomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a ValueSource driven by a PRNG seeded with the
// given value. Identical seeds produce identical streams, which keeps
// synthetic channels reproducible when that matters (soak tests, replay).
func NewRandomSource(seed int64) ValueSource {
	return &randomSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *randomSource) Next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Clock supplies timestamps for readings. Production wiring passes
// time.Now; tests inject a fixed clock.
type Clock func() time.Time

// Multiplexer assembles one cycle's worth of readings from the serial
// measurement and the synthetic channels.
//
// Channel order is fixed at construction and matches the configuration
// order, so every cycle publishes channels in the same sequence.
type Multiplexer struct {
	channels []config.ChannelConfig
	source   ValueSource
	clock    Clock
}

// NewMultiplexer builds a Multiplexer over the configured channels.
//
// Parameters:
//   - channels: channel definitions in publish order
//   - source: value stream for synthetic channels
//   - clock: timestamp source; nil defaults to time.Now
func NewMultiplexer(channels []config.ChannelConfig, source ValueSource, clock Clock) *Multiplexer {
	if clock == nil {
		clock = time.Now
	}
	return &Multiplexer{
		channels: channels,
		source:   source,
		clock:    clock,
	}
}

// Cycle produces the readings for one scheduler cycle.
//
// All readings in a cycle share a single timestamp taken at the start of
// the call. The serial channel is included only when serialValue is
// non-nil (a quiet or unparseable read yields nil); synthetic channels
// are always included, each scaled into its [min, max] range.
func (m *Multiplexer) Cycle(serialValue *float64) []Reading {
	now := m.clock().Unix()

	readings := make([]Reading, 0, len(m.channels))
	for _, ch := range m.channels {
		switch ch.Source {
		case config.SourceSerial:
			if serialValue == nil {
				continue
			}
			readings = append(readings, Reading{
				Channel:   ch.Name,
				Value:     *serialValue,
				Timestamp: now,
			})

		case config.SourceSynthetic:
			readings = append(readings, Reading{
				Channel:   ch.Name,
				Value:     ch.Min + m.source.Next()*(ch.Max-ch.Min),
				Timestamp: now,
			})
		}
	}

	return readings
}
