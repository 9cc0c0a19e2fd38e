package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/casagrid/corriente-bridge/internal/infrastructure/config"
)

// Client owns the single broker session for the bridge.
//
// It wraps paho.mqtt.golang with the session semantics the telemetry
// pipeline needs: an asynchronous connect, non-blocking tracked publishes,
// and a typed event stream. Reconnection after a lost connection is
// delegated to the paho transport's built-in exponential backoff; the
// Client surfaces each transition as an event but runs no retry loop of
// its own.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Transport callbacks run on paho's network goroutines; they touch
//     shared state only under the state mutex and communicate with the
//     main loop exclusively through the event channel.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// state tracks the session lifecycle.
	state   State
	stateMu sync.RWMutex

	// pending tracks publications awaiting broker acknowledgment.
	// Entries are discarded once resolved; nothing survives a restart.
	pending   map[uint32]pendingPublication
	pendingMu sync.Mutex
	nextID    atomic.Uint32

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]byte
	subMu         sync.RWMutex

	// events carries typed session events to the consumer.
	events chan Event

	// logger for overflow/error logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// pendingPublication is a publish request awaiting acknowledgment.
type pendingPublication struct {
	topic    string
	qos      byte
	enqueued time.Time
}

// Connect starts the broker session.
//
// The call is asynchronous: it validates the configuration, builds the
// transport, enqueues the first connection attempt, and returns
// immediately. Success or failure of the attempt is reported on the event
// stream (KindConnected / KindTransportError), never as a blocking return
// value. The transport keeps retrying with exponential backoff until it
// succeeds.
//
// The only errors returned directly are configuration-class failures
// (an unreadable or invalid trust anchor), which are fatal at startup.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//
// Returns:
//   - *Client: Session owner; check Events() for the connection outcome
//   - error: Configuration-class failure only
func Connect(cfg config.MQTTConfig) (*Client, error) {
	tlsConfig, err := buildTLSConfig(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	opts := buildClientOptions(cfg, tlsConfig)

	c := &Client{
		cfg:           cfg,
		options:       opts,
		pending:       make(map[uint32]pendingPublication),
		subscriptions: make(map[string]byte),
		events:        make(chan Event, eventBufferSize),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.setState(StateConnecting)
	})

	c.client = pahomqtt.NewClient(opts)
	c.setState(StateConnecting)

	// Enqueue the connection attempt and watch it from a goroutine so the
	// caller never blocks on the network. With connect-retry enabled the
	// token only errors on failures the transport will not retry past.
	token := c.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.setState(StateError)
			c.emit(Event{Kind: KindTransportError, Err: fmt.Errorf("%w: %w", ErrConnectionFailed, err)})
		}
	}()

	return c, nil
}

// handleConnect is called by the transport when the session is established,
// both initially and after every automatic reconnect.
func (c *Client) handleConnect() {
	c.setState(StateConnected)
	c.restoreSubscriptions()
	c.emit(Event{Kind: KindConnected})
}

// handleConnectionLost is called by the transport when an established
// connection drops. The transport begins its own backoff immediately.
func (c *Client) handleConnectionLost(err error) {
	c.setState(StateDisconnected)

	reason := "unknown"
	if err != nil {
		reason = err.Error()
	}
	c.emit(Event{Kind: KindDisconnected, Reason: reason})
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for topic, qos := range c.subscriptions {
		// Re-subscribe (errors during reconnection are surfaced as messages
		// simply not arriving; the next reconnect retries again)
		c.client.Subscribe(topic, qos, c.messageHandler)
	}
}

// messageHandler routes inbound messages into the event stream.
func (c *Client) messageHandler(_ pahomqtt.Client, msg pahomqtt.Message) {
	// Copy the payload: paho reuses its buffers after the handler returns.
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	c.emit(Event{Kind: KindMessage, Topic: msg.Topic(), Payload: payload})
}

// setState records a session state transition.
func (c *Client) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// State returns the current session state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the session is in the Connected state and the
// transport agrees.
func (c *Client) IsConnected() bool {
	if c.State() != StateConnected {
		return false
	}
	return c.client != nil && c.client.IsConnected()
}

// PendingCount returns the number of publications awaiting acknowledgment.
//
// Useful for observability; pending publications are held in memory only
// and are lost on restart.
func (c *Client) PendingCount() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

// HealthCheck verifies the session is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// Close gracefully shuts the session down.
//
// Pending operations get a short quiesce period to complete; unresolved
// pending publications are discarded (at-most-once across restarts).
//
// Returns:
//   - error: nil (disconnecting an already-closed session is not an error)
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setState(StateDisconnected)

	c.pendingMu.Lock()
	c.pending = make(map[uint32]pendingPublication)
	c.pendingMu.Unlock()

	return nil
}

// SetLogger sets a logger for event-stream overflow and handler errors.
// If not set, these conditions are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
