package types

import "context"

// Provisioner creates the topic and channel a Listener subscribes to.
//
// Implementations must treat creation of an existing resource as success, and must
// issue exactly one creation request per call without retrying: retry policy belongs
// to the caller.
type Provisioner interface {
	// CreateTopic ensures the topic exists.
	CreateTopic(ctx context.Context) error

	// CreateChannel ensures the channel exists on the topic.
	CreateChannel(ctx context.Context) error
}
