// Package sampletv is a minimal concrete device adapter: a fake smart-TV
// that tracks one foreground app and a handful of settings in memory. It
// exists to give the bridge catalogue something real to instantiate and to
// exercise package dab's optional-interface registration end to end.
package sampletv

import (
	"sync"

	"github.com/dabcore/dab-bridge/dab"
	"github.com/dabcore/dab-bridge/dabjson"
	"github.com/dabcore/dab-bridge/telemetry"
)

// Device implements a subset of package dab's optional interfaces, exactly
// the ones a real device of this kind would support. Everything else falls
// back to BaseAdapter's 501 stub automatically.
type Device struct {
	*dab.BaseAdapter

	mu          sync.Mutex
	foreground  string
	settings    map[string]string
	cpuReadings int64
}

// IsCompatible reports whether this adapter type can front the device at
// ipAddress. Every sampletv instance can, since it's a pure in-memory fake;
// a real adapter type would probe the device over the network here.
func IsCompatible(ipAddress string) bool {
	return true
}

// NewDevice constructs a sampletv.Device and registers it with the bridge's
// telemetry/publish wiring. It returns the concrete type so callers that
// need to reach sampletv-specific behavior directly (tests, mainly) don't
// have to type-assert back out of a *dab.BaseAdapter.
func NewDevice(deviceID, ipAddress string, publish telemetry.PublishFunc) *Device {
	d := &Device{
		settings: map[string]string{
			"resolution": "1080p",
			"locale":     "en-US",
		},
	}
	d.BaseAdapter = dab.NewBaseAdapter(deviceID, ipAddress, d, publish, nil)
	return d
}

// New adapts NewDevice to the bridge.AdapterType.New signature.
func New(deviceID, ipAddress string, publish telemetry.PublishFunc) *dab.BaseAdapter {
	return NewDevice(deviceID, ipAddress, publish).BaseAdapter
}

func (d *Device) AppList() (*dabjson.Value, error) {
	netflix := dabjson.NewObject()
	netflix.Set("appId", dabjson.NewString("netflix"))
	netflix.Set("friendlyName", dabjson.NewString("Netflix"))

	youtube := dabjson.NewObject()
	youtube.Set("appId", dabjson.NewString("youtube"))
	youtube.Set("friendlyName", dabjson.NewString("YouTube"))

	apps := dabjson.NewArray()
	apps.Append(netflix)
	apps.Append(youtube)

	out := dabjson.NewObject()
	out.Set("applications", apps)
	return out, nil
}

func (d *Device) AppLaunch(appID string, parameters *dabjson.Value) (*dabjson.Value, error) {
	d.mu.Lock()
	d.foreground = appID
	d.mu.Unlock()

	out := dabjson.NewObject()
	out.Set("started", dabjson.NewBool(true))
	return out, nil
}

func (d *Device) AppGetState(appID string) (*dabjson.Value, error) {
	d.mu.Lock()
	running := d.foreground == appID
	d.mu.Unlock()

	state := "STOPPED"
	if running {
		state = "FOREGROUND"
	}
	out := dabjson.NewObject()
	out.Set("state", dabjson.NewString(state))
	return out, nil
}

func (d *Device) AppExit(appID string, background bool) (*dabjson.Value, error) {
	d.mu.Lock()
	if d.foreground == appID {
		d.foreground = ""
	}
	d.mu.Unlock()
	return dabjson.NewObject(), nil
}

func (d *Device) DeviceInfo() (*dabjson.Value, error) {
	out := dabjson.NewObject()
	out.Set("make", dabjson.NewString("DABCore"))
	out.Set("model", dabjson.NewString("sampletv"))
	out.Set("firmwareVersion", dabjson.NewString("1.0.0"))
	out.Set("networkConnectivityMode", dabjson.NewString("wifi"))
	return out, nil
}

func (d *Device) SystemSettingsList() (*dabjson.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := dabjson.NewObject()
	for k, v := range d.settings {
		out.Set(k, dabjson.NewString(v))
	}
	return out, nil
}

func (d *Device) SystemSettingsGet() (*dabjson.Value, error) {
	return d.SystemSettingsList()
}

func (d *Device) SystemSettingsSet(envelope *dabjson.Value) (*dabjson.Value, error) {
	payload, ok := envelope.Lookup("payload")
	if !ok {
		return dabjson.NewObject(), nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, key := range payload.Keys() {
		val, err := payload.Key(key).AsString()
		if err != nil {
			continue
		}
		d.settings[key] = val
	}
	return dabjson.NewObject(), nil
}

func (d *Device) InputKeyList() (*dabjson.Value, error) {
	codes := dabjson.NewArray()
	for _, code := range []string{"KEY_POWER", "KEY_HOME", "KEY_VOLUME_UP", "KEY_VOLUME_DOWN"} {
		codes.Append(dabjson.NewString(code))
	}
	out := dabjson.NewObject()
	out.Set("keyCodes", codes)
	return out, nil
}

func (d *Device) InputKeyPress(keyCode string) (*dabjson.Value, error) {
	return dabjson.NewObject(), nil
}

func (d *Device) HealthCheckGet() (*dabjson.Value, error) {
	out := dabjson.NewObject()
	out.Set("healthy", dabjson.NewBool(true))
	return out, nil
}

// DeviceTelemetry implements the telemetry producer package dab's
// device-telemetry/start wires up; each tick increments an in-memory
// counter standing in for a real CPU sample.
func (d *Device) DeviceTelemetry() (*dabjson.Value, error) {
	d.mu.Lock()
	d.cpuReadings++
	n := d.cpuReadings % 100
	d.mu.Unlock()

	out := dabjson.NewObject()
	out.Set("cpu", dabjson.NewInt(n))
	return out, nil
}
