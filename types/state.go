package types

// State represents the lifecycle state of a single Listen invocation.
//
// States follow a defined progression:
//
//	StateIdle → StateProvisioning → StateConnecting → StateListening → StateClosed
//
// Provisioning is skipped when auto-creation is enabled, and any step before
// StateListening may end in StateErrored. StateClosed and StateErrored are terminal
// for one invocation; the next Listen call starts again from StateIdle.
type State int

const (
	// StateIdle is the initial state before any operation.
	StateIdle State = iota

	// StateProvisioning indicates topic/channel creation is in progress.
	StateProvisioning

	// StateConnecting indicates the broker connection has been issued but not confirmed.
	StateConnecting

	// StateListening indicates the connection is established and events flow.
	StateListening

	// StateClosed indicates the broker closed the connection.
	StateClosed

	// StateErrored indicates provisioning or connection failed.
	StateErrored
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateProvisioning:
		return "Provisioning"
	case StateConnecting:
		return "Connecting"
	case StateListening:
		return "Listening"
	case StateClosed:
		return "Closed"
	case StateErrored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further transition is possible for the invocation.
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateErrored
}
