package wattz

// State represents the supervisor's connection state.
type State int32

const (
	// StateUninitialized indicates supervision has not started.
	StateUninitialized State = iota

	// StateConnecting indicates the first connection is being established.
	StateConnecting

	// StateActive indicates a live provider connection with the engine
	// running.
	StateActive

	// StateReconnecting indicates the provider connection was lost and a
	// replacement is being established.
	StateReconnecting

	// StateFailed indicates the retry bound was exhausted without reaching
	// the provider. The supervisor does not retry on its own past this
	// point; a fresh Start may move it back to StateConnecting.
	StateFailed

	// StateStopped indicates explicit teardown.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
