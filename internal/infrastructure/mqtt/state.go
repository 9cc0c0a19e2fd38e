package mqtt

// State describes the broker session lifecycle.
//
// Exactly one session exists per Client; all transitions are made by the
// Client itself, never by consumers. Consumers observe transitions via the
// event stream or by polling State().
type State int32

// Session states.
const (
	// StateDisconnected is the initial state and the state after a lost
	// connection, before the transport's automatic reconnect kicks in.
	StateDisconnected State = iota

	// StateConnecting is set while a connection or reconnection attempt
	// is in flight.
	StateConnecting

	// StateConnected is the only state in which publishes are accepted.
	StateConnected

	// StateError is set when a connection attempt fails terminally
	// (the transport reported an error it will not retry past).
	StateError
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
