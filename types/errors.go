package types

import (
	"errors"
	"strings"
)

// Sentinel errors for the subwire library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// The typed errors below match their sentinel with errors.Is and unwrap to the
// underlying cause, so callers can test both the category and the original error.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDialerRequired is returned when a Listener is built without a Dialer.
	ErrDialerRequired = errors.New("dialer is required")

	// ErrProvisioning is matched by every provisioning failure.
	ErrProvisioning = errors.New("provisioning failed")

	// ErrConnection is matched by every connection failure.
	ErrConnection = errors.New("connection failed")

	// ErrListenerClosed is returned when Listen is called on a closed Listener.
	ErrListenerClosed = errors.New("listener closed")
)

// Violation is a single violated configuration constraint.
type Violation struct {
	// Field is the configuration field name (yaml key).
	Field string

	// Reason describes the violated constraint.
	Reason string
}

// String returns "field: reason".
func (v Violation) String() string {
	return v.Field + ": " + v.Reason
}

// ConfigurationError lists every violated configuration constraint.
//
// Error() joins the violations with newlines for human readability, while
// Violations keeps each one addressable for programmatic inspection.
type ConfigurationError struct {
	Violations []Violation
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	lines := make([]string, 0, len(e.Violations)+1)
	lines = append(lines, ErrInvalidConfig.Error()+":")
	for _, v := range e.Violations {
		lines = append(lines, v.String())
	}

	return strings.Join(lines, "\n")
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// HasField reports whether any violation concerns the given field.
func (e *ConfigurationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}

	return false
}

// ProvisioningError reports a failed topic or channel creation.
type ProvisioningError struct {
	// Resource is "topic" or "channel".
	Resource string

	// Err is the error returned by the provisioner, unchanged.
	Err error
}

// Error implements error.
func (e *ProvisioningError) Error() string {
	return "failed to create " + e.Resource + ": " + e.Err.Error()
}

// Unwrap returns the provisioner error.
func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrProvisioning.
func (e *ProvisioningError) Is(target error) bool {
	return target == ErrProvisioning
}

// ConnectionError reports a failed or broken broker connection.
type ConnectionError struct {
	// Err is the error reported by the connection, unchanged.
	Err error
}

// Error implements error.
func (e *ConnectionError) Error() string {
	return ErrConnection.Error() + ": " + e.Err.Error()
}

// Unwrap returns the connection error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}
