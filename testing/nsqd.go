package testing

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/subwire/types"
	"github.com/nsqio/go-nsq"
	"github.com/nsqio/nsq/nsqd"
)

// EmbeddedNSQD is an nsqd running in-process.
//
// It serves the real TCP protocol for consumers and the real HTTP API, so the
// default provisioner's /topic/create and /channel/create requests reach it.
type EmbeddedNSQD struct {
	t      *testing.T
	server *nsqd.NSQD
	tcp    types.Endpoint
	http   types.Endpoint
	exited chan struct{}

	mu       sync.Mutex
	producer *nsq.Producer
	stopOnce sync.Once
}

// nsqdLogger routes nsqd's log lines to a types.Logger at debug level.
type nsqdLogger struct {
	logger types.Logger
}

func (l nsqdLogger) Output(_ int, s string) error {
	l.logger.Debug("nsqd", "line", s)
	return nil
}

// StartEmbeddedNSQD starts nsqd on random loopback ports with its data in a
// temporary directory, stopped with t.Cleanup.
//
// Example:
//
//	func TestConsume(t *testing.T) {
//	    broker := subtest.StartEmbeddedNSQD(t)
//	    cfg := subwire.Config{
//	        DataHost: "127.0.0.1",
//	        DataHTTPPort: broker.HTTPEndpoint().Port,
//	        DataTCPPort: broker.TCPEndpoint().Port,
//	        // ...
//	    }
//	}
func StartEmbeddedNSQD(t *testing.T) *EmbeddedNSQD {
	t.Helper()

	opts := nsqd.NewOptions()
	opts.TCPAddress = "127.0.0.1:0"
	opts.HTTPAddress = "127.0.0.1:0"
	opts.HTTPSAddress = "127.0.0.1:0"
	opts.BroadcastAddress = "127.0.0.1"
	opts.DataPath = t.TempDir()
	opts.Logger = nsqdLogger{logger: NewTestLogger(t)}

	server, err := nsqd.New(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded nsqd: %v", err)
	}

	tcp, err := types.ParseEndpoint(server.RealTCPAddr().String())
	if err != nil {
		server.Exit()
		t.Fatalf("Failed to parse nsqd TCP address: %v", err)
	}

	httpEp, err := types.ParseEndpoint(server.RealHTTPAddr().String())
	if err != nil {
		server.Exit()
		t.Fatalf("Failed to parse nsqd HTTP address: %v", err)
	}

	n := &EmbeddedNSQD{
		t:      t,
		server: server,
		tcp:    tcp,
		http:   httpEp,
		exited: make(chan struct{}),
	}

	// Listeners exist once New returns; Main serves them until Exit.
	go func() {
		defer close(n.exited)
		if err := server.Main(); err != nil {
			t.Logf("embedded nsqd exited: %v", err)
		}
	}()

	t.Cleanup(n.Stop)

	return n
}

// TCPAddr returns the consumer protocol address in host:port form.
func (n *EmbeddedNSQD) TCPAddr() string {
	return n.tcp.String()
}

// TCPEndpoint returns the consumer protocol host and port.
func (n *EmbeddedNSQD) TCPEndpoint() types.Endpoint {
	return n.tcp
}

// HTTPEndpoint returns the HTTP API host and port.
func (n *EmbeddedNSQD) HTTPEndpoint() types.Endpoint {
	return n.http
}

// HasTopic reports whether the topic exists on the broker.
func (n *EmbeddedNSQD) HasTopic(topic string) bool {
	_, err := n.server.GetExistingTopic(topic)
	return err == nil
}

// HasChannel reports whether the channel exists on the topic.
func (n *EmbeddedNSQD) HasChannel(topic, channel string) bool {
	tp, err := n.server.GetExistingTopic(topic)
	if err != nil {
		return false
	}

	_, err = tp.GetExistingChannel(channel)

	return err == nil
}

// Publish publishes body to topic over the TCP protocol and waits for the broker's OK.
func (n *EmbeddedNSQD) Publish(topic string, body []byte) {
	n.t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.producer == nil {
		producer, err := nsq.NewProducer(n.TCPAddr(), nsq.NewConfig())
		if err != nil {
			n.t.Fatalf("Failed to create nsq producer: %v", err)
		}
		producer.SetLogger(log.New(io.Discard, "", 0), nsq.LogLevelError)
		n.producer = producer
	}

	if err := n.producer.Publish(topic, body); err != nil {
		n.t.Fatalf("Failed to publish to %s: %v", topic, err)
	}
}

// Stop shuts the broker down, dropping every client connection. Safe to call
// more than once.
func (n *EmbeddedNSQD) Stop() {
	n.stopOnce.Do(func() {
		n.mu.Lock()
		if n.producer != nil {
			n.producer.Stop()
		}
		n.mu.Unlock()

		n.server.Exit()

		select {
		case <-n.exited:
		case <-time.After(5 * time.Second):
			n.t.Logf("embedded nsqd did not exit within timeout")
		}
	})
}
