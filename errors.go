package subwire

import "github.com/arloliu/subwire/types"

// Sentinel errors returned by the Listener.
//
// Typed errors match their sentinel with errors.Is and unwrap to the original cause.
var (
	// ErrInvalidConfig is matched by every *ConfigurationError.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrDialerRequired is returned when NewListener is called without a Dialer.
	ErrDialerRequired = types.ErrDialerRequired

	// ErrProvisioning is matched by every *ProvisioningError.
	ErrProvisioning = types.ErrProvisioning

	// ErrConnection is matched by every *ConnectionError.
	ErrConnection = types.ErrConnection

	// ErrListenerClosed is returned for operations started after Close.
	ErrListenerClosed = types.ErrListenerClosed
)

// Typed errors re-exported from the types package.
type (
	Violation          = types.Violation
	ConfigurationError = types.ConfigurationError
	ProvisioningError  = types.ProvisioningError
	ConnectionError    = types.ConnectionError
)
