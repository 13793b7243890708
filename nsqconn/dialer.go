package nsqconn

import (
	"fmt"
	"math"

	"github.com/arloliu/subwire/internal/logging"
	"github.com/arloliu/subwire/types"
	"github.com/nsqio/go-nsq"
)

// Dialer creates go-nsq backed connections.
type Dialer struct {
	logger    types.Logger
	logLevel  nsq.LogLevel
	lookupd   bool
	configure func(*nsq.Config)
}

// Compile-time assertion that Dialer implements types.Dialer.
var _ types.Dialer = (*Dialer)(nil)

// Option configures a Dialer.
type Option func(*Dialer)

// WithLogger routes go-nsq's internal log lines to logger.
func WithLogger(logger types.Logger) Option {
	return func(d *Dialer) {
		d.logger = logger
	}
}

// WithLogLevel sets the minimum go-nsq log level forwarded to the logger.
// Default: nsq.LogLevelInfo
func WithLogLevel(level nsq.LogLevel) Option {
	return func(d *Dialer) {
		d.logLevel = level
	}
}

// WithoutLookupd connects to the nsqd address only and never registers nsqlookupd.
func WithoutLookupd() Option {
	return func(d *Dialer) {
		d.lookupd = false
	}
}

// WithConfig adjusts the nsq.Config of every consumer after the target settings are applied.
//
// Example:
//
//	dialer := nsqconn.NewDialer(nsqconn.WithConfig(func(cfg *nsq.Config) {
//	    cfg.DialTimeout = 2 * time.Second
//	}))
func WithConfig(fn func(*nsq.Config)) Option {
	return func(d *Dialer) {
		d.configure = fn
	}
}

// NewDialer creates a Dialer.
//
// Parameters:
//   - opts: Optional configuration (logger, log level, lookupd, consumer config)
//
// Returns:
//   - *Dialer: Dialer ready to pass to subwire.NewListener
//
// Example:
//
//	dialer := nsqconn.NewDialer(nsqconn.WithLogger(logger))
//	listener, err := subwire.NewListener(&cfg, dialer, subwire.WithLogger(logger))
func NewDialer(opts ...Option) *Dialer {
	d := &Dialer{
		logger:   logging.NewNop(),
		logLevel: nsq.LogLevelInfo,
		lookupd:  true,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logging.NewNop()
	}

	return d
}

// Dial creates an unconnected consumer for target.
//
// Parameters:
//   - target: Subscription target
//
// Returns:
//   - types.Connection: *Connection, not yet connected
//   - error: Invalid topic, channel or consumer configuration
func (d *Dialer) Dial(target types.Target) (types.Connection, error) {
	consumer, err := nsq.NewConsumer(target.Topic, target.Channel, d.consumerConfig(target))
	if err != nil {
		return nil, fmt.Errorf("failed to create nsq consumer: %w", err)
	}

	conn := newConnection(target, consumer, d.logger, d.lookupd)
	consumer.SetLogger(&logBridge{logger: d.logger, onFault: conn.reportFault}, d.logLevel)

	return conn, nil
}

// consumerConfig maps the target's delivery settings onto an nsq.Config.
func (d *Dialer) consumerConfig(target types.Target) *nsq.Config {
	cfg := nsq.NewConfig()

	if target.MessageTimeout > 0 {
		cfg.MsgTimeout = target.MessageTimeout
	}
	if target.MaxInFlight > 0 {
		cfg.MaxInFlight = target.MaxInFlight
	}
	if target.MaxAttempts > 0 {
		cfg.MaxAttempts = uint16(min(target.MaxAttempts, math.MaxUint16)) //nolint:gosec // clamped above
	}

	if d.configure != nil {
		d.configure(cfg)
	}

	return cfg
}
