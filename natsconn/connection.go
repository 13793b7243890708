package natsconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/subwire/provision"
	"github.com/arloliu/subwire/types"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Sentinel errors returned by Connection.Connect.
var (
	ErrAlreadyConnected = errors.New("connect already called")
	ErrClosed           = errors.New("connection closed")
)

// Close reasons reported through OnClosed.
const (
	reasonClosedByClient = "closed by client"
	reasonConnLost       = "connection closed"
)

// Connection is a JetStream pull consumer exposed as a types.Connection.
type Connection struct {
	target      types.Target
	natsOptions []nats.Option
	logger      types.Logger

	mu      sync.RWMutex
	obs     types.Observer
	nc      *nats.Conn
	consume jetstream.ConsumeContext

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

func newConnection(target types.Target, natsOptions []nats.Option, logger types.Logger) *Connection {
	return &Connection{
		target:      target,
		natsOptions: natsOptions,
		logger:      logger,
		ready:       make(chan struct{}),
	}
}

// Observe registers the observer receiving this connection's notifications.
func (c *Connection) Observe(obs types.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = obs
}

// Connect dials the NATS server, binds the channel's consumer and starts consuming.
//
// It may be called once. The stream and consumer must exist.
//
// Parameters:
//   - ctx: Context bounding the consumer lookup
//
// Returns:
//   - error: ErrAlreadyConnected, ErrClosed, or the connection or consumer error
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

	opts := append([]nats.Option{}, c.natsOptions...)
	opts = append(opts,
		nats.ClosedHandler(c.onNATSClosed),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.reportFault(err)
			}
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			c.reportFault(err)
		}),
	)

	nc, err := nats.Connect("nats://"+c.target.DataAddress, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS %s: %w", c.target.DataAddress, err)
	}

	consume, err := c.startConsuming(ctx, nc)
	if err != nil {
		nc.Close()
		return err
	}

	c.mu.Lock()
	c.nc = nc
	c.consume = consume
	c.mu.Unlock()

	// Close raced with Connect; it found nothing to stop.
	if c.closing.Load() {
		consume.Stop()
		nc.Close()

		return ErrClosed
	}

	ep, err := types.ParseEndpoint(nc.ConnectedAddr())
	if err != nil {
		ep, _ = types.ParseEndpoint(c.target.DataAddress)
	}

	c.connected.Store(true)
	c.logger.Debug("jetstream consumer connected",
		"topic", c.target.Topic,
		"channel", c.target.Channel,
		"server", nc.ConnectedUrlRedacted(),
	)

	c.emit(func(obs types.Observer) { obs.OnConnected(ep.Host, ep.Port) })

	return nil
}

func (c *Connection) startConsuming(ctx context.Context, nc *nats.Conn) (jetstream.ConsumeContext, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream := provision.StreamName(c.target.Topic)
	name := provision.ConsumerName(c.target.Channel)

	consumer, err := js.Consumer(ctx, stream, name)
	if err != nil {
		return nil, fmt.Errorf("failed to bind consumer %s on stream %s: %w", name, stream, err)
	}

	opts := []jetstream.PullConsumeOpt{
		jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
			c.reportFault(err)
		}),
	}
	if c.target.MaxInFlight > 0 {
		opts = append(opts, jetstream.PullMaxMessages(c.target.MaxInFlight))
	}

	consume, err := consumer.Consume(c.handle, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return consume, nil
}

// Close stops consuming and closes the NATS connection. OnClosed is emitted once.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)

		c.mu.RLock()
		nc, consume := c.nc, c.consume
		c.mu.RUnlock()

		if consume != nil {
			consume.Stop()
		}
		if nc != nil {
			nc.Close()
		}

		c.emitClosed(reasonClosedByClient)
	})

	return nil
}

func (c *Connection) handle(msg jetstream.Msg) {
	<-c.ready

	if c.target.MaxAttempts > 0 {
		if md, err := msg.Metadata(); err == nil && md.NumDelivered > uint64(c.target.MaxAttempts) {
			if err := msg.Term(); err != nil {
				c.logger.Warn("failed to terminate message", "subject", msg.Subject(), "error", err)
			}
			c.emit(func(obs types.Observer) { obs.OnDiscard(msg) })

			return
		}
	}

	c.emit(func(obs types.Observer) { obs.OnMessage(msg) })
}

func (c *Connection) onNATSClosed(_ *nats.Conn) {
	if c.closing.Load() {
		c.emitClosed(reasonClosedByClient)
		return
	}
	c.emitClosed(reasonConnLost)
}

// reportFault surfaces an asynchronous NATS error as OnError once connected.
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
