package testing

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/subwire/types"
)

// FakeDialer is a scriptable types.Dialer.
//
// Every Dial returns a new FakeConnection configured from the dialer's fields at
// that moment. Set the fields before handing the dialer to a Listener.
type FakeDialer struct {
	// Endpoint is reported by OnConnected when a connection connects.
	Endpoint types.Endpoint

	// DialErr makes Dial fail.
	DialErr error

	// ConnectErr makes Connect return this error synchronously.
	ConnectErr error

	// AsyncErr makes Connect report this error through Observer.OnError instead of connecting.
	AsyncErr error

	// Manual makes Connect return without any notification; drive the connection
	// with the Emit methods.
	Manual bool

	mu      sync.Mutex
	targets []types.Target
	conns   []*FakeConnection
}

// Compile-time assertion that FakeDialer implements Dialer.
var _ types.Dialer = (*FakeDialer)(nil)

// Dial implements types.Dialer.
func (d *FakeDialer) Dial(target types.Target) (types.Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.targets = append(d.targets, target)
	if d.DialErr != nil {
		return nil, d.DialErr
	}

	conn := &FakeConnection{
		target:     target,
		endpoint:   d.Endpoint,
		connectErr: d.ConnectErr,
		asyncErr:   d.AsyncErr,
		manual:     d.Manual,
	}
	d.conns = append(d.conns, conn)

	return conn, nil
}

// Targets returns every target passed to Dial.
func (d *FakeDialer) Targets() []types.Target {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]types.Target(nil), d.targets...)
}

// Connections returns every connection created so far.
func (d *FakeDialer) Connections() []*FakeConnection {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*FakeConnection(nil), d.conns...)
}

// Last returns the most recently created connection, or nil.
func (d *FakeDialer) Last() *FakeConnection {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.conns) == 0 {
		return nil
	}

	return d.conns[len(d.conns)-1]
}

// ConnectCalls returns the number of Connect calls across all connections.
func (d *FakeDialer) ConnectCalls() int {
	total := 0
	for _, c := range d.Connections() {
		total += c.ConnectCalls()
	}

	return total
}

// FakeConnection is a scriptable types.Connection.
//
// Notifications are delivered synchronously on the calling goroutine.
type FakeConnection struct {
	target     types.Target
	endpoint   types.Endpoint
	connectErr error
	asyncErr   error
	manual     bool

	mu           sync.Mutex
	obs          types.Observer
	connectCalls atomic.Int32
	closed       atomic.Bool
}

// Compile-time assertion that FakeConnection implements Connection.
var _ types.Connection = (*FakeConnection)(nil)

// Target returns the target the connection was dialed for.
func (c *FakeConnection) Target() types.Target {
	return c.target
}

// Observe implements types.Connection.
func (c *FakeConnection) Observe(obs types.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = obs
}

// Connect implements types.Connection.
func (c *FakeConnection) Connect(_ context.Context) error {
	c.connectCalls.Add(1)

	if c.connectErr != nil {
		return c.connectErr
	}

	switch {
	case c.manual:
	case c.asyncErr != nil:
		c.EmitError(c.asyncErr)
	default:
		c.EmitConnected(c.endpoint.Host, c.endpoint.Port)
	}

	return nil
}

// Close implements types.Connection. The first call reports OnClosed.
func (c *FakeConnection) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.EmitClosed("closed by client")
	}

	return nil
}

// ConnectCalls returns how many times Connect was called.
func (c *FakeConnection) ConnectCalls() int {
	return int(c.connectCalls.Load())
}

// Closed reports whether Close was called.
func (c *FakeConnection) Closed() bool {
	return c.closed.Load()
}

// EmitConnected reports a connected notification.
func (c *FakeConnection) EmitConnected(host string, port int) {
	if obs := c.observer(); obs != nil {
		obs.OnConnected(host, port)
	}
}

// EmitClosed reports a closed notification.
func (c *FakeConnection) EmitClosed(reason string) {
	if obs := c.observer(); obs != nil {
		obs.OnClosed(reason)
	}
}

// EmitMessage reports a message notification.
func (c *FakeConnection) EmitMessage(msg types.Message) {
	if obs := c.observer(); obs != nil {
		obs.OnMessage(msg)
	}
}

// EmitError reports an error notification.
func (c *FakeConnection) EmitError(err error) {
	if obs := c.observer(); obs != nil {
		obs.OnError(err)
	}
}

// EmitDiscard reports a discard notification.
func (c *FakeConnection) EmitDiscard(msg types.Message) {
	if obs := c.observer(); obs != nil {
		obs.OnDiscard(msg)
	}
}

func (c *FakeConnection) observer() types.Observer {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.obs
}
