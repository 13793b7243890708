package subwire

import (
	"errors"
	"fmt"

	"github.com/arloliu/subwire/types"
)

// errClosedBeforeConnect is the cause of a listen outcome when the connection
// closed before it ever reported connected or error.
var errClosedBeforeConnect = errors.New("connection closed before connecting")

// bridge is registered on every Connection a Listener dials.
//
// It republishes every notification to the Listener's observers unchanged, and
// uses the first connected or error notification to settle the invocation that
// dialed the connection. Forwarding happens on the connection's goroutine in
// emission order.
type bridge struct {
	inv *invocation
}

// Compile-time assertion that bridge implements Observer.
var _ types.Observer = (*bridge)(nil)

func (b *bridge) OnConnected(host string, port int) {
	if b.inv.cell.Resolve(Endpoint{Host: host, Port: port}) {
		b.inv.transitionState(StateListening)
	}

	b.inv.l.forward(EventConnected, func(obs Observer) { obs.OnConnected(host, port) })
}

func (b *bridge) OnClosed(reason string) {
	b.inv.reject(&ConnectionError{Err: fmt.Errorf("%w: %s", errClosedBeforeConnect, reason)})
	b.inv.transitionState(StateClosed)

	b.inv.l.forward(EventClosed, func(obs Observer) { obs.OnClosed(reason) })
}

func (b *bridge) OnMessage(msg Message) {
	b.inv.l.forward(EventMessage, func(obs Observer) { obs.OnMessage(msg) })
}

func (b *bridge) OnError(err error) {
	if !b.inv.fail(&ConnectionError{Err: err}) {
		// Outcome already settled: the error is only observable as an event.
		b.inv.l.logger.Warn("connection error after listen settled",
			"session", b.inv.id,
			"error", err,
		)
		b.inv.l.runHook(func() error { return b.inv.l.hooks.OnError(b.inv.l.ctx, err) })
	}

	b.inv.l.forward(EventError, func(obs Observer) { obs.OnError(err) })
}

func (b *bridge) OnDiscard(msg Message) {
	b.inv.l.forward(EventDiscard, func(obs Observer) { obs.OnDiscard(msg) })
}
