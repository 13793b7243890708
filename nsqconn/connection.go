package nsqconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/subwire/types"
	"github.com/nsqio/go-nsq"
)

// Sentinel errors returned by Connection.Connect.
var (
	ErrAlreadyConnected = errors.New("connect already called")
	ErrClosed           = errors.New("connection closed")
)

// Close reasons reported through OnClosed.
const (
	reasonClosedByClient = "closed by client"
	reasonStopped        = "consumer stopped"
)

// Connection is a go-nsq consumer exposed as a types.Connection.
type Connection struct {
	target   types.Target
	consumer *nsq.Consumer
	logger   types.Logger
	lookupd  bool

	mu  sync.RWMutex
	obs types.Observer

	// ready is closed once OnConnected was emitted (or Connect failed), so message
	// notifications never overtake the connected one.
	ready     chan struct{}
	readyOnce sync.Once

	started   atomic.Bool
	connected atomic.Bool
	closing   atomic.Bool
	closeSent atomic.Bool
	closeOnce sync.Once
}

// Compile-time assertion that Connection implements types.Connection.
var _ types.Connection = (*Connection)(nil)

func newConnection(target types.Target, consumer *nsq.Consumer, logger types.Logger, lookupd bool) *Connection {
	return &Connection{
		target:   target,
		consumer: consumer,
		logger:   logger,
		lookupd:  lookupd,
		ready:    make(chan struct{}),
	}
}

// Observe registers the observer receiving this connection's notifications.
func (c *Connection) Observe(obs types.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = obs
}

// Connect subscribes to the target on nsqd and registers nsqlookupd.
//
// It may be called once. An error means OnConnected will never be emitted.
//
// Parameters:
//   - ctx: Context bounding the nsqd handshake
//
// Returns:
//   - error: ErrAlreadyConnected, ErrClosed, ctx.Err() or the nsqd connection error
func (c *Connection) Connect(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyConnected
	}
	defer c.markReady()

	if c.closing.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ep, err := types.ParseEndpoint(c.target.DataAddress)
	if err != nil {
		return fmt.Errorf("invalid nsqd address: %w", err)
	}

	c.consumer.AddHandler(&handler{conn: c})

	result := make(chan error, 1)
	go func() {
		result <- c.consumer.ConnectToNSQD(c.target.DataAddress)
	}()

	select {
	case err := <-result:
		if err != nil {
			c.consumer.Stop()
			return fmt.Errorf("failed to connect to nsqd %s: %w", c.target.DataAddress, err)
		}
	case <-ctx.Done():
		c.consumer.Stop()
		return ctx.Err()
	}

	c.connected.Store(true)
	go c.watch()

	if c.lookupd && c.target.LookupAddress != "" {
		if err := c.consumer.ConnectToNSQLookupd(c.target.LookupAddress); err != nil {
			c.logger.Warn("failed to register nsqlookupd",
				"address", c.target.LookupAddress,
				"error", err,
			)
		}
	}

	c.logger.Debug("nsq consumer connected",
		"topic", c.target.Topic,
		"channel", c.target.Channel,
		"nsqd", c.target.DataAddress,
	)

	c.emit(func(obs types.Observer) { obs.OnConnected(ep.Host, ep.Port) })

	return nil
}

// Close stops the consumer. OnClosed is emitted once the consumer stopped, or right
// away if it never connected. Calling Close again is a no-op.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		c.consumer.Stop()

		if !c.connected.Load() {
			c.emitClosed(reasonClosedByClient)
		}
	})

	return nil
}

// Stopped returns a channel closed once the underlying consumer fully stopped.
func (c *Connection) Stopped() <-chan int {
	return c.consumer.StopChan
}

// Stats returns the consumer's message counters.
func (c *Connection) Stats() *nsq.ConsumerStats {
	return c.consumer.Stats()
}

func (c *Connection) watch() {
	<-c.consumer.StopChan

	reason := reasonStopped
	if c.closing.Load() {
		reason = reasonClosedByClient
	}
	c.emitClosed(reason)
}

// reportFault surfaces a go-nsq connection fault as OnError once connected.
// Faults before that are returned by Connect.
func (c *Connection) reportFault(err error) {
	if !c.connected.Load() || c.closing.Load() {
		return
	}

	c.emit(func(obs types.Observer) { obs.OnError(err) })
}

func (c *Connection) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

func (c *Connection) emitClosed(reason string) {
	if !c.closeSent.CompareAndSwap(false, true) {
		return
	}

	c.emit(func(obs types.Observer) { obs.OnClosed(reason) })
}

func (c *Connection) emit(fn func(types.Observer)) {
	c.mu.RLock()
	obs := c.obs
	c.mu.RUnlock()

	if obs != nil {
		fn(obs)
	}
}

// handler receives messages from the consumer's handler goroutine.
type handler struct {
	conn *Connection
}

// HandleMessage implements nsq.Handler.
func (h *handler) HandleMessage(msg *nsq.Message) error {
	<-h.conn.ready
	h.conn.emit(func(obs types.Observer) { obs.OnMessage(msg) })

	return nil
}

// LogFailedMessage implements nsq.FailedMessageLogger.
func (h *handler) LogFailedMessage(msg *nsq.Message) {
	<-h.conn.ready
	h.conn.emit(func(obs types.Observer) { obs.OnDiscard(msg) })
}
