package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/mqtt"
)

// ============================================================================
// Test Helpers
// ============================================================================

// fakePort replays a scripted sequence of serial frames. Once the script
// is exhausted it reports quiet reads.
type fakePort struct {
	mu     sync.Mutex
	frames [][]byte
	errs   []error
	reads  int
	closed bool
}

func (f *fakePort) Read(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.reads
	f.reads++

	if i < len(f.errs) && f.errs[i] != nil {
		return 0, f.errs[i]
	}
	if i < len(f.frames) {
		return copy(buf, f.frames[i]), nil
	}
	return 0, nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestScheduler(port *fakePort, session *fakeSession) (*Scheduler, *Publisher) {
	src := &sequenceSource{values: []float64{0.5}}
	mux := NewMultiplexer(testChannels(), src, fixedClock(1700000000))
	pub := NewPublisher(session, 1)

	sched := NewScheduler(SchedulerOptions{
		Port:        port,
		Multiplexer: mux,
		Publisher:   pub,
		Interval:    time.Millisecond,
		BufferSize:  1024,
	})
	return sched, pub
}

// runCycles drives the scheduler until the port has seen at least n
// reads, then cancels.
func runCycles(t *testing.T, sched *Scheduler, port *fakePort, n int) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		port.mu.Lock()
		reads := port.reads
		port.mu.Unlock()
		if reads >= n {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatalf("scheduler completed %d reads, wanted %d", reads, n)
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

// ============================================================================
// Scheduler Cycles
// ============================================================================

func TestRun_FullCyclePublishesAllChannels(t *testing.T) {
	port := &fakePort{frames: [][]byte{[]byte("Current reading: 12.34 A\r\n")}}
	session := &fakeSession{connected: true}
	sched, _ := newTestScheduler(port, session)

	runCycles(t, sched, port, 1)

	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.published) < 3 {
		t.Fatalf("published %d readings, want at least 3", len(session.published))
	}

	first := session.published[:3]
	wantTopics := []string{"casa/Cocina/corriente", "casa/Sala/corriente", "casa/Garage/corriente"}
	for i, want := range wantTopics {
		if first[i].topic != want {
			t.Errorf("publication %d topic = %q, want %q", i, first[i].topic, want)
		}
	}
	if first[0].payload != `{"ts":1700000000,"I":12.34}` {
		t.Errorf("serial payload = %q", first[0].payload)
	}
}

func TestRun_QuietReadStillPublishesSynthetic(t *testing.T) {
	port := &fakePort{} // every read returns (0, nil)
	session := &fakeSession{connected: true}
	sched, _ := newTestScheduler(port, session)

	runCycles(t, sched, port, 1)

	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.published) < 2 {
		t.Fatalf("published %d readings, want at least the 2 synthetic channels", len(session.published))
	}
	for _, p := range session.published {
		if p.topic == "casa/Cocina/corriente" {
			t.Error("serial channel published despite quiet read")
		}
	}
}

func TestRun_MalformedFrameSkipsSerialChannelOnly(t *testing.T) {
	port := &fakePort{frames: [][]byte{[]byte("garbage\r\n")}}
	session := &fakeSession{connected: true}
	sched, _ := newTestScheduler(port, session)

	runCycles(t, sched, port, 1)

	session.mu.Lock()
	defer session.mu.Unlock()
	for _, p := range session.published {
		if p.topic == "casa/Cocina/corriente" {
			t.Error("serial channel published from a malformed frame")
		}
	}
	if len(session.published) < 2 {
		t.Errorf("published %d readings, want synthetic channels to survive the bad frame", len(session.published))
	}
}

func TestRun_SerialErrorDoesNotStopLoop(t *testing.T) {
	port := &fakePort{
		errs:   []error{errors.New("device gone")},
		frames: [][]byte{nil, []byte("Current reading: 1.00 A")},
	}
	session := &fakeSession{connected: true}
	sched, _ := newTestScheduler(port, session)

	runCycles(t, sched, port, 2)

	session.mu.Lock()
	defer session.mu.Unlock()
	if len(session.published) < 2 {
		t.Errorf("published %d readings, want the loop to survive the read error", len(session.published))
	}
}

func TestRun_DisconnectedSessionDropsWithoutStopping(t *testing.T) {
	port := &fakePort{}
	session := &fakeSession{connected: false}
	sched, pub := newTestScheduler(port, session)

	runCycles(t, sched, port, 2)

	if session.count() != 0 {
		t.Error("readings reached a disconnected session")
	}
	if pub.Dropped() == 0 {
		t.Error("Dropped() = 0, want drops recorded across cycles")
	}
}

func TestRun_PhaseReturnsToIdle(t *testing.T) {
	port := &fakePort{}
	session := &fakeSession{connected: true}
	sched, _ := newTestScheduler(port, session)

	if sched.Phase() != PhaseIdle {
		t.Errorf("initial Phase() = %v, want idle", sched.Phase())
	}

	runCycles(t, sched, port, 1)
}

func TestRun_DrainsSessionEvents(t *testing.T) {
	events := make(chan mqtt.Event, 4)
	events <- mqtt.Event{Kind: mqtt.KindConnected}
	events <- mqtt.Event{Kind: mqtt.KindAcknowledged, TrackingID: 1}

	port := &fakePort{}
	session := &fakeSession{connected: true}
	src := &sequenceSource{values: []float64{0.5}}
	mux := NewMultiplexer(testChannels(), src, fixedClock(1))
	pub := NewPublisher(session, 1)
	sched := NewScheduler(SchedulerOptions{
		Port:        port,
		Multiplexer: mux,
		Publisher:   pub,
		Events:      events,
		Interval:    time.Millisecond,
		BufferSize:  64,
	})

	runCycles(t, sched, port, 2)

	if len(events) != 0 {
		t.Errorf("%d events left undrained, want 0", len(events))
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	port := &fakePort{}
	session := &fakeSession{connected: true}
	sched, _ := newTestScheduler(port, session)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return with a pre-cancelled context")
	}
}

// ============================================================================
// Phase Names
// ============================================================================

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseIdle, "idle"},
		{PhaseReading, "reading"},
		{PhasePublishing, "publishing"},
		{Phase(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
