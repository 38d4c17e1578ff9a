package dab

import (
	"testing"

	"github.com/dabcore/dab-bridge/dabjson"
)

func TestInvokeBindsFixedFromPayload(t *testing.T) {
	d := &Descriptor{
		FixedParams: []string{"appId"},
		Fn: func(args []*dabjson.Value) (*dabjson.Value, error) {
			appID, _ := args[0].Str()
			return dabjson.Object{"got": appID}.Build(), nil
		},
	}
	envelope := dabjson.Object{
		"topic":   "dab/D1/applications/launch",
		"payload": dabjson.Object{"appId": "hulu"},
	}.Build()

	rsp, err := d.Invoke(envelope)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	got, _ := rsp.Key("got").Str()
	if got != "hulu" {
		t.Fatalf("got = %q, want hulu", got)
	}
}

func TestInvokeBindsFixedFromEnvelopeTopLevel(t *testing.T) {
	d := &Descriptor{
		FixedParams: []string{"appId"},
		Fn: func(args []*dabjson.Value) (*dabjson.Value, error) {
			appID, _ := args[0].Str()
			return dabjson.Object{"got": appID}.Build(), nil
		},
	}
	envelope := dabjson.Object{
		"topic": "dab/D1/applications/launch",
		"appId": "hulu",
	}.Build()

	rsp, err := d.Invoke(envelope)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	got, _ := rsp.Key("got").Str()
	if got != "hulu" {
		t.Fatalf("got = %q, want hulu", got)
	}
}

func TestInvokeMissingFixedParamErrors(t *testing.T) {
	d := &Descriptor{
		FixedParams: []string{"appId"},
		Fn: func(args []*dabjson.Value) (*dabjson.Value, error) {
			t.Fatal("handler should not be called when a fixed parameter is missing")
			return nil, nil
		},
	}
	envelope := dabjson.Object{"topic": "dab/D1/applications/launch"}.Build()

	_, err := d.Invoke(envelope)
	derr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if derr.Status != 400 || derr.Message != `missing parameter "appId"` {
		t.Fatalf("unexpected error: %+v", derr)
	}
}

func TestInvokeOptionalDefaultsToNull(t *testing.T) {
	d := &Descriptor{
		OptionalParams: []string{"parameters"},
		Fn: func(args []*dabjson.Value) (*dabjson.Value, error) {
			if !args[0].IsNull() {
				t.Fatalf("expected default null for unsupplied optional, got %s", args[0].Kind())
			}
			return dabjson.NewObject(), nil
		},
	}
	envelope := dabjson.Object{"topic": "dab/D1/applications/launch"}.Build()

	if _, err := d.Invoke(envelope); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
}

func TestInvokeWildcardPassesWholeEnvelope(t *testing.T) {
	d := &Descriptor{
		FixedParams: []string{"*"},
		Fn: func(args []*dabjson.Value) (*dabjson.Value, error) {
			topic, _ := args[0].Key("topic").Str()
			return dabjson.Object{"echoedTopic": topic}.Build(), nil
		},
	}
	envelope := dabjson.Object{"topic": "dab/D1/system/settings/set"}.Build()

	rsp, err := d.Invoke(envelope)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	got, _ := rsp.Key("echoedTopic").Str()
	if got != "dab/D1/system/settings/set" {
		t.Fatalf("echoedTopic = %q", got)
	}
}

func TestInvokeDoesNotMutateEnvelopeWithSpuriousKeys(t *testing.T) {
	d := &Descriptor{
		OptionalParams: []string{"parameters"},
		Fn: func(args []*dabjson.Value) (*dabjson.Value, error) {
			return dabjson.NewObject(), nil
		},
	}
	envelope := dabjson.Object{"topic": "dab/D1/applications/launch"}.Build()

	if _, err := d.Invoke(envelope); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if envelope.Has("payload") {
		t.Fatal("Invoke() must not plant a spurious payload member on the envelope")
	}
}
