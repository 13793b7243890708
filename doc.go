// Package subwire provides a managed subscription front-end for NSQ-style pub/sub brokers.
//
// A Listener binds one topic/channel pair. On Listen it creates the topic and the
// channel through the broker's administrative API (once per Listener), dials a fresh
// connection and reports the broker node it connected to. Every notification of every
// connection is republished to the observers registered with Subscribe.
//
// # Quick Start
//
// Basic usage against nsqd:
//
//	import (
//	    "github.com/arloliu/subwire"
//	    "github.com/arloliu/subwire/nsqconn"
//	)
//
//	cfg, err := subwire.LoadConfig("subwire.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	listener, err := subwire.NewListener(&cfg, nsqconn.NewDialer())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer listener.Close(context.Background())
//
//	listener.Subscribe(subwire.ObserverFuncs{
//	    Message: func(msg subwire.Message) {
//	        m := msg.(*nsq.Message)
//	        process(m.Body)
//	        m.Finish()
//	    },
//	})
//
//	ep, err := listener.ListenAsync(ctx).Wait(ctx)
//
// # Key Features
//
//   - One-time provisioning: topic and channel are created at most once per Listener
//     unless AutoCreate delegates creation to the broker
//   - Dual API: every asynchronous operation has a callback form and a Future form
//   - Event bridge: connected, closed, message, error and discard notifications reach
//     all observers in emission order
//   - Pluggable brokers: nsqconn dials nsqd, natsconn dials NATS JetStream
//
// # Lifecycle
//
// Each Listen call progresses through its own state sequence:
//
//	Idle → Provisioning → Connecting → Listening → Closed
//
// Provisioning is skipped with AutoCreate. Any failure ends in Errored.
//
// # Errors
//
// Listen outcomes are typed: *ProvisioningError when a creation request failed (nothing
// is dialed), *ConnectionError when dialing or connecting failed. Both match their
// sentinels (ErrProvisioning, ErrConnection) with errors.Is.
//
// See the examples/ directory for complete working examples.
package subwire
