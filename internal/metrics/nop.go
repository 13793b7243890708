// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/subwire/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. It is the default collector of a Listener.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	listener, err := subwire.NewListener(cfg, dialer, subwire.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State) {}

// RecordListenOutcome discards the listen outcome metric.
func (n *NopMetrics) RecordListenOutcome(_ /* success */ bool, _ /* duration */ float64) {}

// RecordProvisionRequest discards the provisioning request metric.
func (n *NopMetrics) RecordProvisionRequest(_ /* resource */ string, _ /* success */ bool, _ /* duration */ float64) {
}

// RecordProvisionSkipped discards the skipped provisioning metric.
func (n *NopMetrics) RecordProvisionSkipped(_ /* resource */ string) {}

// RecordEventForwarded discards the forwarded event metric.
func (n *NopMetrics) RecordEventForwarded(_ /* kind */ types.EventKind) {}
