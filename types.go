package subwire

import "github.com/arloliu/subwire/types"

// Re-export types from the types package.
//
// Type aliases keep a convenient subwire.State, subwire.Observer, etc. for users,
// while adapters and internal packages depend on types without importing the
// root package.
type (
	State     = types.State
	Event     = types.Event
	EventKind = types.EventKind
	Endpoint  = types.Endpoint
	Message   = types.Message
	Target    = types.Target
)

// Re-export interfaces from the types package for convenience.
type (
	Observer         = types.Observer
	ObserverFuncs    = types.ObserverFuncs
	ChannelObserver  = types.ChannelObserver
	Connection       = types.Connection
	Dialer           = types.Dialer
	DialerFunc       = types.DialerFunc
	Provisioner      = types.Provisioner
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export State constants from the types package.
const (
	StateIdle         = types.StateIdle
	StateProvisioning = types.StateProvisioning
	StateConnecting   = types.StateConnecting
	StateListening    = types.StateListening
	StateClosed       = types.StateClosed
	StateErrored      = types.StateErrored
)

// Re-export EventKind constants from the types package.
const (
	EventMessage   = types.EventMessage
	EventConnected = types.EventConnected
	EventClosed    = types.EventClosed
	EventError     = types.EventError
	EventDiscard   = types.EventDiscard
)

// NewChannelObserver creates an observer delivering Event values on a buffered channel.
//
// Example:
//
//	obs := subwire.NewChannelObserver(64)
//	unsubscribe := listener.Subscribe(obs)
//	defer func() { unsubscribe(); obs.Close() }()
//	for ev := range obs.Events() {
//	    handle(ev)
//	}
func NewChannelObserver(buffer int) *ChannelObserver {
	return types.NewChannelObserver(buffer)
}

// ParseEndpoint splits a host:port address into an Endpoint.
func ParseEndpoint(addr string) (Endpoint, error) {
	return types.ParseEndpoint(addr)
}
