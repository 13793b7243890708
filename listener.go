package subwire

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/subwire/internal/hooks"
	"github.com/arloliu/subwire/internal/logging"
	"github.com/arloliu/subwire/internal/metrics"
	"github.com/arloliu/subwire/internal/settle"
	"github.com/arloliu/subwire/provision"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// ListenCallback receives the outcome of Listen.
//
// On success err is nil and ep is the broker node the connection is bound to.
type ListenCallback func(ep Endpoint, err error)

// ProvisionCallback receives the outcome of CreateTopic or CreateChannel.
type ProvisionCallback func(err error)

const (
	resourceTopic   = "topic"
	resourceChannel = "channel"
)

// validTransitions lists the allowed state changes of one Listen invocation.
var validTransitions = map[State][]State{
	StateIdle:         {StateProvisioning, StateConnecting, StateErrored},
	StateProvisioning: {StateConnecting, StateErrored},
	StateConnecting:   {StateListening, StateClosed, StateErrored},
	StateListening:    {StateClosed},
	StateClosed:       {}, // Terminal
	StateErrored:      {}, // Terminal
}

// Listener is a managed subscription to one topic/channel pair.
//
// Listener handles:
//   - One-time provisioning of the topic and channel
//   - Dialing a fresh broker connection for every Listen call
//   - Republishing connection events to registered observers
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Provisioning is serialized, so concurrent Listen calls still issue at most
//     one successful creation request per resource
//
// Lifecycle:
//   - Create with NewListener()
//   - Register observers with Subscribe()
//   - Call Listen() or ListenAsync() to provision and connect
//   - Call Close() to tear down every connection
type Listener struct {
	cfg         Config
	target      Target
	dialer      Dialer
	provisioner Provisioner

	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger

	observers      *xsync.Map[uint64, Observer]
	nextObserverID atomic.Uint64

	// Provisioning state. Flags are set after a successful creation and never cleared.
	provisionMu    sync.Mutex
	topicCreated   atomic.Bool
	channelCreated atomic.Bool

	current atomic.Pointer[invocation]

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	conns  []Connection
	closed bool
}

// NewListener creates a Listener for the configured topic and channel.
//
// The configuration is copied, completed with defaults and validated; the caller's
// value is not modified. Without WithProvisioner, topics and channels are created
// through the nsqd HTTP API at DataHost:DataHTTPPort.
//
// Parameters:
//   - cfg: Subscription configuration
//   - dialer: Creates broker connections (nsqconn.NewDialer, natsconn.NewDialer, ...)
//   - opts: Optional configuration (logger, metrics, hooks, provisioner, HTTP client)
//
// Returns:
//   - *Listener: Initialized listener
//   - error: *ConfigurationError if the configuration is invalid, ErrDialerRequired if dialer is nil
//
// Example:
//
//	cfg := subwire.Config{
//	    DataHost: "127.0.0.1", DataHTTPPort: 4151, DataTCPPort: 4150,
//	    LookupHost: "127.0.0.1", LookupPort: 4161,
//	    Topic: "orders", Channel: "billing",
//	}
//	listener, err := subwire.NewListener(&cfg, nsqconn.NewDialer())
func NewListener(cfg *Config, dialer Dialer, opts ...Option) (*Listener, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if dialer == nil {
		return nil, ErrDialerRequired
	}

	own := *cfg
	SetDefaults(&own)

	if err := own.Validate(); err != nil {
		return nil, err
	}

	options := &listenerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	own.ValidateWithWarnings(loggerInstance)

	provisioner := options.provisioner
	if provisioner == nil {
		client := options.httpClient
		if client == nil {
			client = &http.Client{Timeout: own.AdminTimeout}
		}

		provisioner = provision.NewHTTP(provision.HTTPConfig{
			Protocol: own.Protocol,
			Host:     own.DataHost,
			Port:     own.DataHTTPPort,
			Topic:    own.Topic,
			Channel:  own.Channel,
			Logger:   loggerInstance,
		}, client)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Listener{
		cfg:         own,
		target:      own.Target(),
		dialer:      dialer,
		provisioner: provisioner,
		hooks:       hooks.Complete(options.hooks),
		metrics:     metricsCollector,
		logger:      loggerInstance,
		observers:   xsync.NewMap[uint64, Observer](),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Config returns a copy of the effective configuration.
func (l *Listener) Config() Config {
	return l.cfg
}

// TopicCreated reports whether the topic was created by this listener.
func (l *Listener) TopicCreated() bool {
	return l.topicCreated.Load()
}

// ChannelCreated reports whether the channel was created by this listener.
func (l *Listener) ChannelCreated() bool {
	return l.channelCreated.Load()
}

// CreateTopic issues one topic creation request in the background.
//
// cb, if not nil, is invoked exactly once: with nil on success, with a
// *ProvisioningError otherwise. A success marks the topic as created, so later
// Listen calls skip it.
//
// Parameters:
//   - ctx: Context bounding the request
//   - cb: Outcome callback (may be nil)
func (l *Listener) CreateTopic(ctx context.Context, cb ProvisionCallback) {
	l.provisionAsync(ctx, resourceTopic, cb)
}

// CreateTopicAsync is CreateTopic returning a Future instead of taking a callback.
//
// Example:
//
//	if _, err := listener.CreateTopicAsync(ctx).Wait(ctx); err != nil {
//	    return err
//	}
func (l *Listener) CreateTopicAsync(ctx context.Context) *Future[struct{}] {
	return newFuture(l.provisionAsync(ctx, resourceTopic, nil))
}

// CreateChannel issues one channel creation request in the background.
//
// See CreateTopic for the callback contract.
func (l *Listener) CreateChannel(ctx context.Context, cb ProvisionCallback) {
	l.provisionAsync(ctx, resourceChannel, cb)
}

// CreateChannelAsync is CreateChannel returning a Future instead of taking a callback.
func (l *Listener) CreateChannelAsync(ctx context.Context) *Future[struct{}] {
	return newFuture(l.provisionAsync(ctx, resourceChannel, nil))
}

// Listen provisions the topic and channel if needed, then connects, in the background.
//
// cb, if not nil, is invoked at most once with the outcome:
//   - the connected endpoint, on the first connected notification
//   - a *ProvisioningError, if creating the topic or channel failed (nothing is dialed)
//   - a *ConnectionError, on dial or connect failure, the first error notification,
//     a close before connecting, or when ctx ends first
//
// Later notifications of the connection are only delivered to observers.
//
// cb runs synchronously on the goroutine that settled the outcome. For a connected
// or error notification that is the connection's own goroutine, inside Connect for
// nsqconn, so message delivery waits until cb returns. cb may call Close.
//
// Parameters:
//   - ctx: Context bounding provisioning and connecting
//   - cb: Outcome callback (may be nil)
//
// Example:
//
//	listener.Listen(ctx, func(ep subwire.Endpoint, err error) {
//	    if err != nil {
//	        log.Printf("listen failed: %v", err)
//	        return
//	    }
//	    log.Printf("listening on %s", ep)
//	})
func (l *Listener) Listen(ctx context.Context, cb ListenCallback) {
	l.listen(ctx, cb)
}

// ListenAsync is Listen returning a Future instead of taking a callback.
//
// Example:
//
//	ep, err := listener.ListenAsync(ctx).Wait(ctx)
func (l *Listener) ListenAsync(ctx context.Context) *Future[Endpoint] {
	return newFuture(l.listen(ctx, nil))
}

// Subscribe registers an observer for every connection event of this listener.
//
// Observers are called synchronously on the connection's goroutine in emission order,
// after the Listen callback for the notification that settled the outcome. A slow
// observer delays every later notification of that connection.
//
// Parameters:
//   - obs: Observer to register
//
// Returns:
//   - func(): Unsubscribe function, safe to call more than once
func (l *Listener) Subscribe(obs Observer) func() {
	if obs == nil {
		return func() {}
	}

	id := l.nextObserverID.Add(1)
	l.observers.Store(id, obs)

	return sync.OnceFunc(func() {
		l.observers.Delete(id)
	})
}

// State returns the state of the most recent Listen invocation.
//
// Returns:
//   - State: Current state (StateIdle before the first Listen)
func (l *Listener) State() State {
	inv := l.current.Load()
	if inv == nil {
		return StateIdle
	}

	return inv.State()
}

// WaitState waits for the most recent invocation to reach the expected state within the timeout.
//
// The returned channel receives exactly one value, nil once the state is reached or
// context.DeadlineExceeded when the timeout expires, and is closed afterwards.
//
// Parameters:
//   - expectedState: The state to wait for
//   - timeout: Maximum duration to wait for the state
//
// Returns:
//   - <-chan error: A channel that receives the result (nil on success, error on timeout)
//
// Example:
//
//	if err := <-listener.WaitState(subwire.StateListening, 5*time.Second); err != nil {
//	    return fmt.Errorf("listener not ready: %w", err)
//	}
func (l *Listener) WaitState(expectedState State, timeout time.Duration) <-chan error {
	ch := make(chan error, 1) // Buffered to prevent goroutine leak

	go func() {
		defer close(ch)

		if l.State() == expectedState {
			ch <- nil
			return
		}

		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

		timeoutTimer := time.NewTimer(timeout)
		defer timeoutTimer.Stop()

		for {
			select {
			case <-ticker.C:
				if l.State() == expectedState {
					ch <- nil
					return
				}
			case <-timeoutTimer.C:
				ch <- context.DeadlineExceeded
				return
			}
		}
	}()

	return ch
}

// Close closes every connection dialed by the listener and waits for in-flight
// provisioning requests and dials to finish.
//
// Pending Listen outcomes are rejected with ErrListenerClosed. Operations started
// after Close fail with ErrListenerClosed. Calling Close again is a no-op. Close
// may be called from Listen and provisioning callbacks and from observers.
//
// Parameters:
//   - ctx: Context bounding the wait for pending operations
//
// Returns:
//   - error: Joined connection close errors, or ctx.Err() if the wait timed out
func (l *Listener) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	conns := l.conns
	l.conns = nil
	l.mu.Unlock()

	l.logger.Info("closing listener", "topic", l.cfg.Topic, "channel", l.cfg.Channel, "connections", len(conns))

	l.cancel()

	var errs []error
	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return errors.Join(errs...)
}

// begin registers a background operation unless the listener is closed.
func (l *Listener) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.wg.Add(1)

	return true
}

// bind derives a context that also ends when the listener is closed.
func (l *Listener) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.ctx, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}

func (l *Listener) provisionAsync(ctx context.Context, resource string, cb ProvisionCallback) *settle.Cell[struct{}] {
	cell := settle.New[struct{}](func(_ struct{}, err error) {
		if cb != nil {
			cb(err)
		}
	})

	if !l.begin() {
		cell.Reject(ErrListenerClosed)
		return cell
	}

	go func() {
		ctx, cancel := l.bind(ctx)
		defer cancel()

		l.provisionMu.Lock()
		err := l.createResource(ctx, resource)
		l.provisionMu.Unlock()
		l.wg.Done()

		if err != nil {
			cell.Reject(err)
			return
		}
		cell.Resolve(struct{}{})
	}()

	return cell
}

func (l *Listener) listen(ctx context.Context, cb ListenCallback) *settle.Cell[Endpoint] {
	inv := &invocation{l: l, id: uuid.NewString(), started: time.Now()}
	inv.cell = settle.New[Endpoint](func(ep Endpoint, err error) {
		l.metrics.RecordListenOutcome(err == nil, time.Since(inv.started).Seconds())
		if err != nil {
			l.logger.Error("listen failed", "session", inv.id, "error", err)
		} else {
			l.logger.Info("listening", "session", inv.id, "endpoint", ep.String())
		}

		if cb != nil {
			cb(ep, err)
		}
	})

	if !l.begin() {
		inv.cell.Reject(ErrListenerClosed)
		return inv.cell
	}

	l.current.Store(inv)
	go l.run(ctx, inv)

	return inv.cell
}

// run drives one Listen invocation: provision, dial, observe, connect, await outcome.
func (l *Listener) run(ctx context.Context, inv *invocation) {
	ctx, cancel := l.bind(ctx)
	defer cancel()

	conn, err := l.prepare(ctx, inv)

	// Callbacks and observers run past this point and may call Close.
	l.wg.Done()

	if err != nil {
		inv.fail(err)
		return
	}

	// Close may have closed conn before it was observed.
	if l.ctx.Err() != nil {
		inv.fail(&ConnectionError{Err: ErrListenerClosed})
		return
	}

	if err := conn.Connect(ctx); err != nil {
		inv.fail(&ConnectionError{Err: err})
		return
	}

	select {
	case <-inv.cell.Done():
	case <-ctx.Done():
		cause := ctx.Err()
		if l.ctx.Err() != nil {
			cause = ErrListenerClosed
		}
		inv.fail(&ConnectionError{Err: cause})
	}
}

// prepare provisions unless AutoCreate is set, then dials and tracks an observed
// connection ready for Connect.
func (l *Listener) prepare(ctx context.Context, inv *invocation) (Connection, error) {
	l.logger.Debug("listen started",
		"session", inv.id,
		"topic", l.cfg.Topic,
		"channel", l.cfg.Channel,
		"autoCreate", l.cfg.AutoCreate,
	)

	if l.cfg.AutoCreate {
		l.metrics.RecordProvisionSkipped(resourceTopic)
		l.metrics.RecordProvisionSkipped(resourceChannel)
	} else {
		inv.transitionState(StateProvisioning)

		l.provisionMu.Lock()
		err := l.provision(ctx)
		l.provisionMu.Unlock()

		if err != nil {
			return nil, err
		}
	}

	inv.transitionState(StateConnecting)

	conn, err := l.dialer.Dial(l.target)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if !l.track(conn) {
		_ = conn.Close()
		return nil, &ConnectionError{Err: ErrListenerClosed}
	}

	// Observe before Connect so no early notification is lost.
	conn.Observe(&bridge{inv: inv})

	return conn, nil
}

// track records conn for Close. It returns false if the listener is already closed.
func (l *Listener) track(conn Connection) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.conns = append(l.conns, conn)

	return true
}

// provision creates the topic and then the channel unless already created.
// The caller holds provisionMu.
func (l *Listener) provision(ctx context.Context) error {
	if err := l.ensureResource(ctx, resourceTopic); err != nil {
		return err
	}

	return l.ensureResource(ctx, resourceChannel)
}

func (l *Listener) ensureResource(ctx context.Context, resource string) error {
	if l.created(resource).Load() {
		l.metrics.RecordProvisionSkipped(resource)
		return nil
	}

	return l.createResource(ctx, resource)
}

// createResource issues one creation request and marks the resource on success.
func (l *Listener) createResource(ctx context.Context, resource string) error {
	create := l.provisioner.CreateTopic
	if resource == resourceChannel {
		create = l.provisioner.CreateChannel
	}

	start := time.Now()
	err := create(ctx)
	l.metrics.RecordProvisionRequest(resource, err == nil, time.Since(start).Seconds())

	if err != nil {
		l.logger.Error("failed to create "+resource,
			"topic", l.cfg.Topic,
			"channel", l.cfg.Channel,
			"error", err,
		)

		return &ProvisioningError{Resource: resource, Err: err}
	}

	l.created(resource).Store(true)
	l.logger.Info(resource+" created", "topic", l.cfg.Topic, "channel", l.cfg.Channel)

	return nil
}

func (l *Listener) created(resource string) *atomic.Bool {
	if resource == resourceChannel {
		return &l.channelCreated
	}

	return &l.topicCreated
}

// forward delivers one notification to every registered observer.
func (l *Listener) forward(kind EventKind, deliver func(Observer)) {
	l.observers.Range(func(_ uint64, obs Observer) bool {
		deliver(obs)
		return true
	})

	l.metrics.RecordEventForwarded(kind)
}

// runHook runs a hook in the background so it never blocks the caller.
func (l *Listener) runHook(fn func() error) {
	go func() {
		if err := fn(); err != nil {
			l.logger.Error("hook error", "error", err)
		}
	}()
}

// invocation is one Listen call with its own state sequence and outcome.
type invocation struct {
	l       *Listener
	id      string
	started time.Time
	cell    *settle.Cell[Endpoint]
	state   atomic.Int32
}

// State returns the invocation's current state.
func (inv *invocation) State() State {
	return State(inv.state.Load())
}

// transitionState moves to the given state if the table allows it from the current one.
func (inv *invocation) transitionState(to State) bool {
	for {
		from := inv.State()
		if !isValidTransition(from, to) {
			inv.l.logger.Debug("ignoring state transition",
				"session", inv.id,
				"from", from.String(),
				"to", to.String(),
			)

			return false
		}

		if inv.state.CompareAndSwap(int32(from), int32(to)) { //nolint:gosec // State values are controlled enum
			inv.l.logger.Info("state transition",
				"session", inv.id,
				"from", from.String(),
				"to", to.String(),
			)

			inv.l.metrics.RecordStateTransition(from, to)
			inv.l.runHook(func() error {
				return inv.l.hooks.OnStateChanged(inv.l.ctx, from, to)
			})

			return true
		}
	}
}

// reject settles the outcome with err if still pending and reports the error hook.
func (inv *invocation) reject(err error) bool {
	if !inv.cell.Reject(err) {
		return false
	}

	inv.l.runHook(func() error {
		return inv.l.hooks.OnError(inv.l.ctx, err)
	})

	return true
}

// fail rejects the outcome and moves the invocation to StateErrored.
func (inv *invocation) fail(err error) bool {
	if !inv.reject(err) {
		return false
	}
	inv.transitionState(StateErrored)

	return true
}

func isValidTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}
