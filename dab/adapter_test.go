package dab

import (
	"testing"
	"time"

	"github.com/dabcore/dab-bridge/dabjson"
)

type fakeDevice struct {
	launched string
}

func (f *fakeDevice) AppLaunch(appID string, parameters *dabjson.Value) (*dabjson.Value, error) {
	f.launched = appID
	return dabjson.Object{"started": true}.Build(), nil
}

func (f *fakeDevice) DeviceTelemetry() (*dabjson.Value, error) {
	return dabjson.Object{"cpu": 42}.Build(), nil
}

func newTestAdapter(t *testing.T) (*BaseAdapter, *fakeDevice, chan struct {
	topic   string
	payload *dabjson.Value
}) {
	t.Helper()
	dev := &fakeDevice{}
	published := make(chan struct {
		topic   string
		payload *dabjson.Value
	}, 16)
	a := NewBaseAdapter("D1", "10.0.0.1", dev, func(topic string, payload *dabjson.Value) {
		published <- struct {
			topic   string
			payload *dabjson.Value
		}{topic, payload}
	}, nil)
	t.Cleanup(a.Shutdown)
	return a, dev, published
}

func TestDispatchHappyPath(t *testing.T) {
	a, dev, _ := newTestAdapter(t)

	envelope := dabjson.Object{
		"topic":   "dab/D1/applications/launch",
		"payload": dabjson.Object{"appId": "netflix"},
	}.Build()

	rsp := a.Dispatch(envelope)

	started, err := rsp.Key("started").Bool()
	if err != nil || !started {
		t.Fatalf("expected started=true, got %v err=%v", started, err)
	}
	status, _ := rsp.Key("status").Int()
	if status != 200 {
		t.Fatalf("expected status 200, got %d", status)
	}
	if dev.launched != "netflix" {
		t.Fatalf("expected AppLaunch to be called with netflix, got %q", dev.launched)
	}
}

func TestDispatchMissingFixedParam(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	envelope := dabjson.Object{
		"topic":   "dab/D1/applications/launch",
		"payload": dabjson.Object{},
	}.Build()

	rsp := a.Dispatch(envelope)

	status, _ := rsp.Key("status").Int()
	if status != 400 {
		t.Fatalf("expected status 400, got %d", status)
	}
	errText, _ := rsp.Key("error").Str()
	if errText != `missing parameter "appId"` {
		t.Fatalf("error = %q", errText)
	}
}

func TestDispatchUnsupportedStub(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	envelope := dabjson.Object{"topic": "dab/D1/device/info"}.Build()
	rsp := a.Dispatch(envelope)

	status, _ := rsp.Key("status").Int()
	if status != 501 {
		t.Fatalf("expected status 501, got %d", status)
	}
}

func TestDispatchUnknownTopic(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	envelope := dabjson.Object{"topic": "dab/D1/nonsense"}.Build()
	rsp := a.Dispatch(envelope)

	status, _ := rsp.Key("status").Int()
	if status != 200 {
		t.Fatalf("expected status 200, got %d", status)
	}
	if rsp.Has("error") {
		t.Fatalf("expected no error member, got %q", rsp.Key("error"))
	}
}

func TestOpListOnlyReportsImplemented(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	envelope := dabjson.Object{"topic": "dab/D1/operations/list"}.Build()
	rsp := a.Dispatch(envelope)

	ops := rsp.Key("operations").Elements()
	found := map[string]bool{}
	for _, op := range ops {
		s, _ := op.Str()
		found[s] = true
	}

	for _, want := range []string{"operations/list", "version", "applications/launch", "device-telemetry/start", "device-telemetry/stop"} {
		if !found[want] {
			t.Fatalf("expected operations/list to include %q, got %v", want, found)
		}
	}
	if found["device/info"] {
		t.Fatal("operations/list should not report an unimplemented stub")
	}
	if found["discovery"] {
		t.Fatal("dab/discovery must never appear in operations/list")
	}
}

func TestVersionOperation(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	envelope := dabjson.Object{"topic": "dab/D1/version"}.Build()
	rsp := a.Dispatch(envelope)

	versions := rsp.Key("versions").Elements()
	if len(versions) != 1 {
		t.Fatalf("expected one version entry, got %d", len(versions))
	}
	v, _ := versions[0].Str()
	if v != "2.0" {
		t.Fatalf("version = %q, want 2.0", v)
	}
}

func TestTopicsExcludesDiscoveryAndUnimplemented(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	topics := a.Topics()

	for _, topic := range topics {
		if topic == "dab/discovery" {
			t.Fatal("Topics() must not include dab/discovery")
		}
	}
	want := "dab/D1/applications/launch"
	found := false
	for _, topic := range topics {
		if topic == want {
			found = true
		}
		if topic == "dab/D1/device/info" {
			t.Fatal("Topics() should not include an unimplemented stub")
		}
	}
	if !found {
		t.Fatalf("expected Topics() to include %q, got %v", want, topics)
	}
}

func TestDiscoveryDefaultShape(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	rsp, err := a.Discovery()
	if err != nil {
		t.Fatalf("Discovery() error = %v", err)
	}
	ip, _ := rsp.Key("ip").Str()
	id, _ := rsp.Key("deviceId").Str()
	if ip != "10.0.0.1" || id != "D1" {
		t.Fatalf("Discovery() = ip=%q deviceId=%q", ip, id)
	}
}

func TestDeviceTelemetryStartEmitsImmediateTick(t *testing.T) {
	a, _, published := newTestAdapter(t)

	envelope := dabjson.Object{
		"topic":   "dab/D1/device-telemetry/start",
		"payload": dabjson.Object{"duration": 100},
	}.Build()
	rsp := a.Dispatch(envelope)
	d, _ := rsp.Key("duration").Int()
	if d != 100 {
		t.Fatalf("expected echoed duration 100, got %d", d)
	}

	select {
	case msg := <-published:
		if msg.topic != "dab/D1/device-telemetry/metrics" {
			t.Fatalf("unexpected telemetry topic %q", msg.topic)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an immediate telemetry publish after start")
	}
}
