package types

import "context"

// Hooks defines callbacks for Listener lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines so they
// never delay provisioning, connecting or event forwarding. Hook errors are logged.
//
// Example:
//
//	hooks := &subwire.Hooks{
//	    OnStateChanged: func(ctx context.Context, from, to subwire.State) error {
//	        log.Printf("listener %s -> %s", from, to)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnStateChanged is called after every state transition of a Listen invocation.
	OnStateChanged func(ctx context.Context, from, to State) error

	// OnError is called when provisioning or connecting fails, and for every
	// error the connection reports after the listen outcome settled.
	OnError func(ctx context.Context, err error) error
}
