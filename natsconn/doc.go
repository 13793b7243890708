// Package natsconn implements types.Dialer and types.Connection over NATS JetStream.
//
// A topic maps to a stream and a channel to a pull consumer, named the way
// provision.JetStream creates them. Connect dials nats://<DataAddress>, binds the
// consumer and starts consuming. Messages are delivered as jetstream.Msg and must be
// acknowledged by an observer; a message delivered more than MaxAttempts times is
// terminated and reported through OnDiscard instead.
package natsconn
