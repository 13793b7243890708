package testing

import (
	"context"
	"testing"
	"time"

	"github.com/arloliu/subwire/types"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StartEmbeddedNATS starts an embedded NATS server with JetStream enabled for testing.
//
// The server listens on a random loopback port and stores JetStream data in a
// temporary directory. Server and client connection are torn down with t.Cleanup.
//
// Parameters:
//   - t: Testing context for logging and cleanup
//
// Returns:
//   - *server.Server: The embedded NATS server instance
//   - *nats.Conn: Connected NATS client (closed automatically on test completion)
//
// Example:
//
//	func TestMyComponent(t *testing.T) {
//	    ns, nc := subtest.StartEmbeddedNATS(t)
//	    ep := subtest.ServerEndpoint(t, ns)
//	}
func StartEmbeddedNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // random available port
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("Embedded NATS server not ready within timeout")
	}

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		ns.Shutdown()
		t.Fatalf("Failed to connect to embedded NATS server: %v", err)
	}

	// Cleanup runs in reverse registration order of the resources above.
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns, nc
}

// ServerEndpoint returns the client host and port of an embedded server.
func ServerEndpoint(t *testing.T, ns *server.Server) types.Endpoint {
	t.Helper()

	ep, err := types.ParseEndpoint(ns.Addr().String())
	if err != nil {
		t.Fatalf("Failed to parse server address %s: %v", ns.Addr(), err)
	}

	return ep
}

// PublishJetStream publishes data to subject and waits for the stream acknowledgement.
func PublishJetStream(t *testing.T, nc *nats.Conn, subject string, data []byte) {
	t.Helper()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to get JetStream context: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	if _, err := js.Publish(ctx, subject, data); err != nil {
		t.Fatalf("Failed to publish to %s: %v", subject, err)
	}
}
