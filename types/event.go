package types

import (
	"net"
	"strconv"
)

// Message is an opaque broker message handle.
//
// Adapters hand over their native message value unchanged (*nsq.Message for nsqconn,
// jetstream.Msg for natsconn). Observers type-assert to the handle they expect and are
// responsible for its disposition (finish, requeue, ack).
type Message = any

// EventKind names a public event republished by a Listener.
type EventKind int

const (
	// EventMessage carries a message handle.
	EventMessage EventKind = iota + 1

	// EventConnected carries the connected host and port.
	EventConnected

	// EventClosed carries the close reason.
	EventClosed

	// EventError carries an error reported by the connection.
	EventError

	// EventDiscard carries a message handle the broker client gave up on.
	EventDiscard
)

// String returns the public event name.
func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventConnected:
		return "connected"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	case EventDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

// Event is the value form of a forwarded notification.
//
// Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Message  Message
	Endpoint Endpoint
	Reason   string
	Err      error
}

// Endpoint identifies the broker node a connection is bound to.
type Endpoint struct {
	Host string
	Port int
}

// String returns the endpoint as host:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint splits a host:port address into an Endpoint.
//
// Parameters:
//   - addr: Address in host:port form
//
// Returns:
//   - Endpoint: Parsed endpoint
//   - error: Error if the address has no port or the port is not numeric
func ParseEndpoint(addr string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return Endpoint{}, err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Endpoint{}, err
	}

	return Endpoint{Host: host, Port: port}, nil
}
