// Package advertise announces a running DAB bridge on the local network via
// mDNS/DNS-SD, the inverse of the discovery lookup the reference client
// code performs: instead of browsing for "_dab._tcp" services, this process
// answers for one.
package advertise

import (
	"fmt"

	"github.com/hashicorp/mdns"
)

const serviceType = "_dab._tcp"

// Advertiser wraps a single hashicorp/mdns responder. deviceCount is read at
// construction time and baked into the TXT record; call Refresh to rebuild
// the responder after the bridge's device count changes.
type Advertiser struct {
	instance string
	port     int
	server   *mdns.Server
}

// New starts advertising instance (typically the bridge's own hostname or a
// generated id) on port, with deviceCount published as a TXT record so LAN
// scanners can tell at a glance how many devices this bridge multiplexes
// without a follow-up query.
func New(instance string, port int, deviceCount int) (*Advertiser, error) {
	info := []string{fmt.Sprintf("devices=%d", deviceCount)}

	service, err := mdns.NewMDNSService(instance, serviceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("advertise: building mdns service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("advertise: starting mdns server: %w", err)
	}

	return &Advertiser{instance: instance, port: port, server: server}, nil
}

// Refresh tears down the current responder and starts a new one with an
// updated device count. Call after bridge.AddDevice changes how many
// devices this process is fronting.
func (a *Advertiser) Refresh(deviceCount int) error {
	if err := a.server.Shutdown(); err != nil {
		return fmt.Errorf("advertise: shutting down previous responder: %w", err)
	}

	info := []string{fmt.Sprintf("devices=%d", deviceCount)}
	service, err := mdns.NewMDNSService(a.instance, serviceType, "", "", a.port, nil, info)
	if err != nil {
		return fmt.Errorf("advertise: building mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("advertise: starting mdns server: %w", err)
	}
	a.server = server
	return nil
}

// Shutdown stops responding to mDNS queries.
func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}
