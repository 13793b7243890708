// Package testing provides test utilities for the subwire library.
//
// It follows Go's convention of shipping testing helpers in a dedicated package
// (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - StartAdminServer: Fake nsqd administrative endpoint counting creation requests
//   - StartEmbeddedNSQD: Single in-process nsqd serving the TCP protocol and HTTP API
//   - FakeDialer / FakeConnection: Scriptable broker connections
//   - NewTestLogger: Logger writing through t.Logf
//
// Example usage:
//
//	import (
//	    "testing"
//	    subtest "github.com/arloliu/subwire/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    admin := subtest.StartAdminServer(t)
//	    dialer := &subtest.FakeDialer{Endpoint: types.Endpoint{Host: "127.0.0.1", Port: 4150}}
//	    // build a Listener against admin.Host()/admin.Port() and dialer
//	}
package testing
