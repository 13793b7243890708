// Package provision implements types.Provisioner for the supported brokers.
//
// Two implementations are provided:
//   - HTTP: the nsqd administrative endpoint (POST /topic/create and /channel/create)
//   - JetStream: NATS JetStream, where a topic is a stream and a channel is a durable consumer
//
// Both issue exactly one creation request per call and never retry. Creating a
// resource that already exists is a success.
package provision
