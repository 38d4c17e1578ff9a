// Package bridge implements the multi-device switchboard that multiplexes
// many device adapter instances under one process: it routes inbound
// envelopes by deviceId, probes a typed adapter catalogue to construct new
// device instances, and fans dab/discovery out across every registered
// device.
package bridge

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dabcore/dab-bridge/dab"
	"github.com/dabcore/dab-bridge/dabjson"
	"github.com/dabcore/dab-bridge/telemetry"
)

// AdapterType is one entry in the bridge's typed adapter catalogue.
// IsCompatible is consulted only when an ipAddress is supplied to
// AddDevice; with no ipAddress, on-device mode instantiates the first
// catalogue entry unconditionally.
type AdapterType struct {
	Name         string
	IsCompatible func(ipAddress string) bool
	New          func(deviceID, ipAddress string, publish telemetry.PublishFunc) *dab.BaseAdapter
}

// Bridge owns a deviceId → *dab.BaseAdapter registry and a publish callback
// shared by every adapter it creates.
type Bridge struct {
	catalogue []AdapterType
	logger    *slog.Logger

	mu       sync.RWMutex
	adapters map[string]*dab.BaseAdapter
	publish  telemetry.PublishFunc
}

// New constructs a Bridge over the given adapter catalogue. The catalogue
// order matters: isCompatible is probed in order and the first match wins.
func New(catalogue []AdapterType, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		catalogue: catalogue,
		logger:    logger,
		adapters:  map[string]*dab.BaseAdapter{},
	}
}

// SetPublishCallback installs the outbound publish function used by every
// adapter this bridge creates from this point on. Call it once, before any
// device is added; the callback is never swapped out from under adapters
// already dispatching.
func (b *Bridge) SetPublishCallback(publish telemetry.PublishFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publish = publish
}

// AddDevice probes the adapter catalogue and constructs a new device
// instance for deviceId. An empty ipAddress selects on-device mode (the
// first catalogue entry, unconditionally); a non-empty ipAddress probes
// each entry's IsCompatible in catalogue order, first match wins. Returns a
// 400 *dab.Error ("no compatible devices found") if nothing matches.
func (b *Bridge) AddDevice(deviceID, ipAddress string) (*dab.BaseAdapter, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var chosen *AdapterType
	if ipAddress == "" {
		if len(b.catalogue) == 0 {
			return nil, dab.NewError(400, "no compatible devices found")
		}
		chosen = &b.catalogue[0]
	} else {
		for i := range b.catalogue {
			if b.catalogue[i].IsCompatible != nil && b.catalogue[i].IsCompatible(ipAddress) {
				chosen = &b.catalogue[i]
				break
			}
		}
		if chosen == nil {
			return nil, dab.NewError(400, "no compatible devices found")
		}
	}

	publish := b.publish
	adapter := chosen.New(deviceID, ipAddress, func(topic string, payload *dabjson.Value) {
		if publish != nil {
			publish(topic, payload)
		}
	})
	b.adapters[deviceID] = adapter
	b.logger.Info("device instance created", "deviceId", deviceID, "adapterType", chosen.Name)
	return adapter, nil
}

// RemoveDevice shuts down and unregisters deviceId's adapter, if present.
func (b *Bridge) RemoveDevice(deviceID string) {
	b.mu.Lock()
	adapter, ok := b.adapters[deviceID]
	if ok {
		delete(b.adapters, deviceID)
	}
	b.mu.Unlock()
	if ok {
		adapter.Shutdown()
	}
}

// deviceIDs returns every registered deviceId in lexicographic order, since
// Go's map iteration order is randomized and discovery fan-out depends on a
// stable order.
func (b *Bridge) deviceIDs() []string {
	ids := make([]string, 0, len(b.adapters))
	for id := range b.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch routes one envelope by topic: "dab/discovery" fans out across
// every device (first device's response is returned directly, the rest are
// pushed through the publish callback), "dab/<deviceId>/..." routes to that
// device's adapter, and anything else is a malformed-topic 400.
func (b *Bridge) Dispatch(envelope *dabjson.Value) *dabjson.Value {
	topicVal, ok := envelope.Lookup("topic")
	if !ok {
		return dab.ErrorResponse(dab.NewError(400, "no topic found"))
	}
	topic, err := topicVal.AsString()
	if err != nil {
		return dab.ErrorResponse(dab.NewError(400, "topic is malformed"))
	}

	if topic == "dab/discovery" {
		return b.dispatchDiscovery(envelope)
	}

	if !strings.HasPrefix(topic, "dab/") {
		return dab.ErrorResponse(dab.NewError(400, "topic is malformed"))
	}
	rest := topic[len("dab/"):]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return dab.ErrorResponse(dab.NewError(400, "topic is malformed"))
	}
	deviceID := rest[:slash]

	b.mu.RLock()
	adapter, ok := b.adapters[deviceID]
	b.mu.RUnlock()
	if !ok {
		return dab.ErrorResponse(dab.NewError(400, "deviceId does not exist"))
	}
	return adapter.Dispatch(envelope)
}

func (b *Bridge) dispatchDiscovery(envelope *dabjson.Value) *dabjson.Value {
	b.mu.RLock()
	ids := b.deviceIDs()
	publish := b.publish
	b.mu.RUnlock()

	if len(ids) == 0 {
		return dab.ErrorResponse(dab.NewError(400, "no compatible devices found"))
	}

	var first *dabjson.Value
	for i, id := range ids {
		b.mu.RLock()
		adapter := b.adapters[id]
		b.mu.RUnlock()

		rsp, err := adapter.Discovery()
		if err != nil {
			rsp = dab.ErrorResponse(err)
		}
		if !rsp.Has("status") {
			rsp.Set("status", dabjson.NewInt(200))
		}

		if i == 0 {
			first = rsp
			continue
		}
		if publish != nil {
			publish("dab/discovery", rsp)
		}
	}
	return first
}

// Topics returns the aggregate subscription list: every implemented topic
// across every registered device, plus "dab/discovery" once.
func (b *Bridge) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]string, 0)
	for _, id := range b.deviceIDs() {
		topics = append(topics, b.adapters[id].Topics()...)
	}
	topics = append(topics, "dab/discovery")
	return topics
}

// Devices returns the set of currently registered deviceIds, lexicographic.
func (b *Bridge) Devices() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.deviceIDs()
}

// Adapter returns the adapter registered under deviceID, if any. Used by
// admin and mcpserver to resolve a single device's operation list without
// either package depending on *Bridge's internals.
func (b *Bridge) Adapter(deviceID string) (*dab.BaseAdapter, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.adapters[deviceID]
	return a, ok
}

// Shutdown tears down every registered adapter.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	adapters := make([]*dab.BaseAdapter, 0, len(b.adapters))
	for _, a := range b.adapters {
		adapters = append(adapters, a)
	}
	b.adapters = map[string]*dab.BaseAdapter{}
	b.mu.Unlock()

	for _, a := range adapters {
		a.Shutdown()
	}
}
