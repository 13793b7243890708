// Package types provides core type definitions and interfaces for the subwire library.
//
// This package contains shared types that are used across multiple packages in the
// subwire library. By keeping these types in a separate package, broker adapters
// (nsqconn, natsconn) and provisioners can depend on them without importing the
// root subwire package.
//
// Key types:
//   - State: Per-invocation listen lifecycle state
//   - Target: Resolved subscription target handed to a Dialer
//   - Connection, Dialer: Broker client contract
//   - Observer: Capability set for broker notifications
//   - Provisioner: Topic/channel creation contract
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
