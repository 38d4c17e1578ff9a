package dabjson

import "testing"

func TestSerializeRoundTrip(t *testing.T) {
	orig := Object{
		"topic": "dab/D1/version",
		"payload": Object{
			"appId": "netflix",
		},
	}.Build()

	out := Serialize(orig)
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Serialize(v)) error = %v", err)
	}

	topic, _ := parsed.Key("topic").Str()
	if topic != "dab/D1/version" {
		t.Fatalf("round-tripped topic = %q", topic)
	}
	appID, _ := parsed.Key("payload").Key("appId").Str()
	if appID != "netflix" {
		t.Fatalf("round-tripped appId = %q", appID)
	}
}

func TestSerializeLexicographicKeyOrder(t *testing.T) {
	v := Object{
		"zebra": 1,
		"alpha": 2,
		"mike":  3,
	}.Build()

	got := string(Serialize(v))
	want := `{"alpha":2,"mike":3,"zebra":1}`
	if got != want {
		t.Fatalf("Serialize() = %s, want %s", got, want)
	}
}

func TestSerializeQuotesKeysByDefault(t *testing.T) {
	v := Object{"appId": "netflix"}.Build()
	got := string(Serialize(v))
	want := `{"appId":"netflix"}`
	if got != want {
		t.Fatalf("Serialize() = %s, want %s", got, want)
	}
}

func TestSerializeUnquotedKeysMode(t *testing.T) {
	v := Object{"appId": "netflix"}.Build()
	got := string(SerializeUnquotedKeys(v))
	want := `{appId:"netflix"}`
	if got != want {
		t.Fatalf("SerializeUnquotedKeys() = %s, want %s", got, want)
	}
}

func TestSerializeEscapesAndPercentEncoding(t *testing.T) {
	v := NewString("a\"b\\c\rd\ne\tf" + "\x01" + "\xa0")
	got := string(Serialize(v))
	want := `"a\"b\\c\rd\ne\tf%01%A0"`
	if got != want {
		t.Fatalf("Serialize(string) = %s, want %s", got, want)
	}
}

func TestSerializeArrays(t *testing.T) {
	v := Array{1, "two", true, nil}.Build()
	got := string(Serialize(v))
	want := `[1,"two",true,null]`
	if got != want {
		t.Fatalf("Serialize(array) = %s, want %s", got, want)
	}
}

func TestSerializeFloatFixedNotation(t *testing.T) {
	v := NewFloat(3.5)
	got := string(Serialize(v))
	if got != "3.5" {
		t.Fatalf("Serialize(float) = %s, want 3.5", got)
	}
}
