//go:build integration
// +build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/arloliu/subwire"
	"github.com/stretchr/testify/require"
)

// nextEvent returns the next event of the given kind, skipping others.
func nextEvent(t *testing.T, obs *subwire.ChannelObserver, kind subwire.EventKind) subwire.Event {
	t.Helper()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-obs.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
			return subwire.Event{}
		}
	}
}

func closeListener(t *testing.T, l *subwire.Listener) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Close(ctx))
}
