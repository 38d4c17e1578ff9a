package sampletv

import (
	"testing"

	"github.com/dabcore/dab-bridge/dabjson"
)

func newTestAdapter(t *testing.T) *Device {
	t.Helper()
	var published []string
	return NewDevice("tv1", "", func(topic string, payload *dabjson.Value) {
		published = append(published, topic)
	})
}

func envelope(topic string) *dabjson.Value {
	e := dabjson.NewObject()
	e.Set("topic", dabjson.NewString(topic))
	return e
}

func TestAppLifecycle(t *testing.T) {
	dev := newTestAdapter(t)

	launchEnv := envelope("dab/tv1/applications/launch")
	launchEnv.Set("appId", dabjson.NewString("netflix"))
	rsp := dev.Dispatch(launchEnv)
	if rsp.Key("status").Kind() != dabjson.Int {
		t.Fatalf("expected integer status, got %s", rsp.Key("status").Kind())
	}
	status, _ := rsp.Key("status").Int()
	if status != 200 {
		t.Fatalf("launch: status = %d, want 200", status)
	}

	stateEnv := envelope("dab/tv1/applications/get-state")
	stateEnv.Set("appId", dabjson.NewString("netflix"))
	rsp = dev.Dispatch(stateEnv)
	state, err := rsp.Key("state").Str()
	if err != nil || state != "FOREGROUND" {
		t.Fatalf("get-state after launch = %q, err %v, want FOREGROUND", state, err)
	}

	exitEnv := envelope("dab/tv1/applications/exit")
	exitEnv.Set("appId", dabjson.NewString("netflix"))
	dev.Dispatch(exitEnv)

	rsp = dev.Dispatch(stateEnv)
	state, _ = rsp.Key("state").Str()
	if state != "STOPPED" {
		t.Fatalf("get-state after exit = %q, want STOPPED", state)
	}
}

func TestSystemSettingsRoundTrip(t *testing.T) {
	dev := newTestAdapter(t)

	setEnv := envelope("dab/tv1/system/settings/set")
	payload := dabjson.NewObject()
	payload.Set("locale", dabjson.NewString("fr-FR"))
	setEnv.Set("payload", payload)
	dev.Dispatch(setEnv)

	rsp := dev.Dispatch(envelope("dab/tv1/system/settings/get"))
	locale, err := rsp.Key("locale").AsString()
	if err != nil || locale != "fr-FR" {
		t.Fatalf("locale after set = %q, err %v, want fr-FR", locale, err)
	}
}

func TestUnsupportedOperationStubbed(t *testing.T) {
	dev := newTestAdapter(t)

	rsp := dev.Dispatch(envelope("dab/tv1/system/restart"))
	status, _ := rsp.Key("status").AsInt()
	if status != 501 {
		t.Fatalf("system/restart status = %d, want 501 (unimplemented by sampletv)", status)
	}
}

func TestDeviceTelemetryIncrementsAcrossTicks(t *testing.T) {
	dev := newTestAdapter(t)

	first, err := dev.DeviceTelemetry()
	if err != nil {
		t.Fatalf("DeviceTelemetry: %v", err)
	}
	second, err := dev.DeviceTelemetry()
	if err != nil {
		t.Fatalf("DeviceTelemetry: %v", err)
	}

	a, _ := first.Key("cpu").Int()
	b, _ := second.Key("cpu").Int()
	if b != a+1 {
		t.Fatalf("expected consecutive cpu readings, got %d then %d", a, b)
	}
}
