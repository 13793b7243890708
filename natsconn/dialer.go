package natsconn

import (
	"errors"
	"fmt"

	"github.com/arloliu/subwire/internal/logging"
	"github.com/arloliu/subwire/types"
	"github.com/nats-io/nats.go"
)

// defaultClientName identifies subwire connections in NATS server monitoring.
const defaultClientName = "subwire"

// Dialer creates JetStream backed connections.
type Dialer struct {
	logger      types.Logger
	natsOptions []nats.Option
	clientName  string
}

// Compile-time assertion that Dialer implements types.Dialer.
var _ types.Dialer = (*Dialer)(nil)

// Option configures a Dialer.
type Option func(*Dialer)

// WithLogger sets the logger of every connection.
func WithLogger(logger types.Logger) Option {
	return func(d *Dialer) {
		d.logger = logger
	}
}

// WithNATSOptions appends options to every nats.Connect call.
//
// Handlers set here are replaced by the connection's own closed, disconnect and
// error handlers.
//
// Example:
//
//	dialer := natsconn.NewDialer(natsconn.WithNATSOptions(nats.UserInfo("svc", secret)))
func WithNATSOptions(opts ...nats.Option) Option {
	return func(d *Dialer) {
		d.natsOptions = append(d.natsOptions, opts...)
	}
}

// WithClientName sets the client name reported to the NATS server.
// Default: "subwire"
func WithClientName(name string) Option {
	return func(d *Dialer) {
		d.clientName = name
	}
}

// NewDialer creates a Dialer.
//
// Parameters:
//   - opts: Optional configuration (logger, NATS options, client name)
//
// Returns:
//   - *Dialer: Dialer ready to pass to subwire.NewListener
//
// Example:
//
//	listener, err := subwire.NewListener(&cfg, natsconn.NewDialer(),
//	    subwire.WithProvisioner(jsProvisioner),
//	)
func NewDialer(opts ...Option) *Dialer {
	d := &Dialer{
		logger:     logging.NewNop(),
		clientName: defaultClientName,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logging.NewNop()
	}

	return d
}

// Dial creates an unconnected JetStream connection for target.
//
// Parameters:
//   - target: Subscription target; DataAddress is the NATS server host:port
//
// Returns:
//   - types.Connection: *Connection, not yet connected
//   - error: Missing topic or channel, or a malformed address
func (d *Dialer) Dial(target types.Target) (types.Connection, error) {
	if target.Topic == "" || target.Channel == "" {
		return nil, errors.New("topic and channel are required")
	}

	if _, err := types.ParseEndpoint(target.DataAddress); err != nil {
		return nil, fmt.Errorf("invalid NATS address: %w", err)
	}

	opts := make([]nats.Option, 0, len(d.natsOptions)+1)
	opts = append(opts, nats.Name(d.clientName))
	opts = append(opts, d.natsOptions...)

	return newConnection(target, opts, d.logger), nil
}
