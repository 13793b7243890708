package subwire

import "net/http"

// Option configures a Listener with optional dependencies.
type Option func(*listenerOptions)

// listenerOptions holds optional Listener configuration.
type listenerOptions struct {
	hooks       *Hooks
	metrics     MetricsCollector
	logger      Logger
	provisioner Provisioner
	httpClient  *http.Client
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewListener
//
// Example:
//
//	hooks := &subwire.Hooks{
//	    OnError: func(ctx context.Context, err error) error {
//	        alert(err)
//	        return nil
//	    },
//	}
//	listener, err := subwire.NewListener(&cfg, dialer, subwire.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *listenerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewListener
//
// Example:
//
//	metrics := subwire.NewPrometheusMetrics(prometheus.DefaultRegisterer, "orders")
//	listener, err := subwire.NewListener(&cfg, dialer, subwire.WithMetrics(metrics))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *listenerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation, see NewSlogLogger and NewZerologLogger
//
// Returns:
//   - Option: Functional option for NewListener
//
// Example:
//
//	logger := subwire.NewSlogLogger(slog.Default())
//	listener, err := subwire.NewListener(&cfg, dialer, subwire.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *listenerOptions) {
		o.logger = logger
	}
}

// WithProvisioner replaces the default HTTP provisioner.
//
// Use it to provision on a broker other than nsqd, for example with
// provision.NewJetStream.
//
// Parameters:
//   - provisioner: Provisioner implementation
//
// Returns:
//   - Option: Functional option for NewListener
func WithProvisioner(provisioner Provisioner) Option {
	return func(o *listenerOptions) {
		o.provisioner = provisioner
	}
}

// WithHTTPClient sets the HTTP client of the default provisioner.
//
// Without it, a client with Config.AdminTimeout as its timeout is used.
// Ignored when WithProvisioner is also given.
//
// Parameters:
//   - client: HTTP client for creation requests
//
// Returns:
//   - Option: Functional option for NewListener
func WithHTTPClient(client *http.Client) Option {
	return func(o *listenerOptions) {
		o.httpClient = client
	}
}
