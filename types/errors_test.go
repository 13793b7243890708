package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("all errors are distinct", func(t *testing.T) {
		allErrors := []error{
			ErrInvalidConfig,
			ErrDialerRequired,
			ErrProvisioning,
			ErrConnection,
			ErrListenerClosed,
		}

		for i, err1 := range allErrors {
			for j, err2 := range allErrors {
				if i != j {
					require.False(t, errors.Is(err1, err2), "%v should not match %v", err1, err2)
				}
			}
		}
	})
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Violations: []Violation{
		{Field: "topic", Reason: "is required"},
		{Field: "dataTcpPort", Reason: "must be between 1 and 65535"},
	}}

	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Equal(t, "invalid configuration:\ntopic: is required\ndataTcpPort: must be between 1 and 65535", err.Error())
	require.True(t, err.HasField("topic"))
	require.False(t, err.HasField("channel"))

	wrapped := fmt.Errorf("building listener: %w", err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, wrapped, &cfgErr)
	require.Len(t, cfgErr.Violations, 2)
}

func TestProvisioningError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ProvisioningError{Resource: "topic", Err: cause}

	require.ErrorIs(t, err, ErrProvisioning)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrConnection)
	require.Equal(t, "failed to create topic: connection refused", err.Error())
}

func TestConnectionError(t *testing.T) {
	cause := errors.New("boom")
	err := &ConnectionError{Err: cause}

	require.ErrorIs(t, err, ErrConnection)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrProvisioning)
	require.Equal(t, "connection failed: boom", err.Error())
}
