// Package inproc provides an in-process transport.Binding: a direct
// function-call carrier with no network hop, used by the on-device mode
// bootstrap (cmd/dabbridge) when the adapter and its only caller share a
// process, and by tests that want to drive a bridge without a broker.
package inproc

import "github.com/dabcore/dab-bridge/dabjson"

// Transport is the simplest possible transport.Binding: Send hands an
// envelope directly to the wired dispatcher and returns its response, with
// no goroutine, no queue, and nothing to start or shut down.
type Transport struct {
	dispatcher Dispatcher
}

// Dispatcher matches transport.Dispatcher; redeclared here so this package
// doesn't need to import transport just for the interface name.
type Dispatcher interface {
	Dispatch(envelope *dabjson.Value) *dabjson.Value
	Topics() []string
}

// New wraps dispatcher for direct, synchronous calls.
func New(dispatcher Dispatcher) *Transport {
	return &Transport{dispatcher: dispatcher}
}

// Send dispatches envelope synchronously and returns the response.
func (t *Transport) Send(envelope *dabjson.Value) *dabjson.Value {
	return t.dispatcher.Dispatch(envelope)
}

// Start and Shutdown exist only to satisfy transport.Binding; there is
// nothing to start or stop for a direct function call.
func (t *Transport) Start() error    { return nil }
func (t *Transport) Shutdown() error { return nil }
