package types

import (
	"sync"
	"sync/atomic"
)

// Observer is the capability set a Connection reports through.
//
// The same interface is used on both sides of the bridge: a Listener registers an
// Observer on every Connection it dials, and callers register Observers on the
// Listener to receive the republished events.
//
// Methods are called synchronously on the goroutine that produced the notification,
// in emission order. Implementations must not block for long; slow observers delay
// every observer registered after them for the same notification.
type Observer interface {
	// OnConnected is called when the connection reached a broker node.
	OnConnected(host string, port int)

	// OnClosed is called when the connection closed.
	OnClosed(reason string)

	// OnMessage is called for every delivered message.
	OnMessage(msg Message)

	// OnError is called when the connection reports an error.
	OnError(err error)

	// OnDiscard is called when the broker client gave up on a message.
	OnDiscard(msg Message)
}

// ObserverFuncs adapts optional functions to the Observer interface.
//
// Nil fields are skipped.
//
// Example:
//
//	unsubscribe := listener.Subscribe(types.ObserverFuncs{
//	    Message: func(msg types.Message) {
//	        m := msg.(*nsq.Message)
//	        process(m.Body)
//	        m.Finish()
//	    },
//	})
//	defer unsubscribe()
type ObserverFuncs struct {
	Connected func(host string, port int)
	Closed    func(reason string)
	Message   func(msg Message)
	Error     func(err error)
	Discard   func(msg Message)
}

// Compile-time assertion that ObserverFuncs implements Observer.
var _ Observer = ObserverFuncs{}

// OnConnected implements Observer.
func (f ObserverFuncs) OnConnected(host string, port int) {
	if f.Connected != nil {
		f.Connected(host, port)
	}
}

// OnClosed implements Observer.
func (f ObserverFuncs) OnClosed(reason string) {
	if f.Closed != nil {
		f.Closed(reason)
	}
}

// OnMessage implements Observer.
func (f ObserverFuncs) OnMessage(msg Message) {
	if f.Message != nil {
		f.Message(msg)
	}
}

// OnError implements Observer.
func (f ObserverFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// OnDiscard implements Observer.
func (f ObserverFuncs) OnDiscard(msg Message) {
	if f.Discard != nil {
		f.Discard(msg)
	}
}

// ChannelObserver delivers notifications as Event values on a buffered channel.
//
// Sends never block: when the buffer is full the event is dropped and counted.
// Close the observer after unsubscribing it to release readers ranging over Events.
type ChannelObserver struct {
	ch      chan Event
	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64
}

// Compile-time assertion that ChannelObserver implements Observer.
var _ Observer = (*ChannelObserver)(nil)

// NewChannelObserver creates a channel-backed observer.
//
// Parameters:
//   - buffer: Channel capacity (values below 1 are raised to 1)
//
// Returns:
//   - *ChannelObserver: Observer ready to be registered
func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer < 1 {
		buffer = 1
	}

	return &ChannelObserver{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the event channel.
func (c *ChannelObserver) Events() <-chan Event {
	return c.ch
}

// Dropped returns how many events were dropped because the buffer was full.
func (c *ChannelObserver) Dropped() uint64 {
	return c.dropped.Load()
}

// Close closes the event channel. Further notifications are ignored.
func (c *ChannelObserver) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// OnConnected implements Observer.
func (c *ChannelObserver) OnConnected(host string, port int) {
	c.send(Event{Kind: EventConnected, Endpoint: Endpoint{Host: host, Port: port}})
}

// OnClosed implements Observer.
func (c *ChannelObserver) OnClosed(reason string) {
	c.send(Event{Kind: EventClosed, Reason: reason})
}

// OnMessage implements Observer.
func (c *ChannelObserver) OnMessage(msg Message) {
	c.send(Event{Kind: EventMessage, Message: msg})
}

// OnError implements Observer.
func (c *ChannelObserver) OnError(err error) {
	c.send(Event{Kind: EventError, Err: err})
}

// OnDiscard implements Observer.
func (c *ChannelObserver) OnDiscard(msg Message) {
	c.send(Event{Kind: EventDiscard, Message: msg})
}

func (c *ChannelObserver) send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.ch <- ev:
	default:
		c.dropped.Add(1)
	}
}
