package types

import (
	"context"
	"time"
)

// Target is the resolved subscription target handed to a Dialer.
//
// It is derived once from a validated configuration and never mutated.
type Target struct {
	// Topic is the topic to subscribe to.
	Topic string

	// Channel is the channel (consumer group) on the topic.
	Channel string

	// DataAddress is the data service subscription address (host:port).
	DataAddress string

	// LookupAddress is the lookup service HTTP address (host:port).
	LookupAddress string

	// MessageTimeout is the per-message processing timeout. Zero keeps the broker client default.
	MessageTimeout time.Duration

	// MaxInFlight is the number of messages the broker may push before acknowledgement.
	MaxInFlight int

	// MaxAttempts is the delivery count after which a message is discarded.
	MaxAttempts int
}

// Connection is a single subscription to the broker.
//
// A Connection is created by a Dialer and used for exactly one Listen invocation.
// Notifications are reported through the Observer registered with Observe.
type Connection interface {
	// Observe registers the observer that receives every notification of this connection.
	//
	// Must be called before Connect so early notifications are not lost.
	Observe(obs Observer)

	// Connect starts the subscription.
	//
	// Success is reported with Observer.OnConnected. A non-nil return value means the
	// connection could not be started at all; asynchronous failures are reported with
	// Observer.OnError.
	Connect(ctx context.Context) error

	// Close tears down the subscription. Observer.OnClosed is called once the
	// underlying client stopped.
	Close() error
}

// Dialer creates fresh, unconnected Connections.
type Dialer interface {
	// Dial creates a new Connection for the target. It must not perform network I/O.
	Dial(target Target) (Connection, error)
}

// DialerFunc is a function adapter for Dialer.
type DialerFunc func(target Target) (Connection, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(target Target) (Connection, error) { return f(target) }
