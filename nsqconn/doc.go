// Package nsqconn implements types.Dialer and types.Connection over the go-nsq consumer.
//
// Each dialed Connection wraps one nsq.Consumer subscribed to the target's topic and
// channel. Connect attaches to the nsqd TCP address and, unless disabled, registers the
// nsqlookupd address for discovery of further producers.
//
// Notifications:
//   - OnConnected once the nsqd subscription succeeded, with the nsqd host and port
//   - OnMessage for every delivered *nsq.Message (auto-finished when observers return,
//     unless an observer called DisableAutoResponse)
//   - OnDiscard for messages delivered more than MaxAttempts times (finished by go-nsq)
//   - OnError for connection faults reported by go-nsq after connecting
//   - OnClosed once the consumer stopped
package nsqconn
