// Package transport defines the boundary between the DAB core (dispatcher,
// adapters, bridge) and whatever carries envelopes in from the outside
// world: MQTT or an in-process call. The core never imports a concrete
// transport; the bindings (mqtt, inproc) satisfy Binding and declare their
// own copy of Dispatcher, so they import neither this package nor bridge.
package transport

import "github.com/dabcore/dab-bridge/dabjson"

// Dispatcher is the subset of bridge.Bridge a transport binding needs: route
// one envelope to a response, and report which topics to subscribe to.
type Dispatcher interface {
	Dispatch(envelope *dabjson.Value) *dabjson.Value
	Topics() []string
}

// Binding is one concrete carrier for DAB envelopes.
type Binding interface {
	Start() error
	Shutdown() error
}
