package dabjson

import "testing"

func TestAutoVivifyObject(t *testing.T) {
	v := NewNull()
	v.Key("appId").Clear()
	if !v.IsObject() {
		t.Fatalf("expected null to promote to object after Key(), got %s", v.Kind())
	}
	if v.Has("appId") {
		t.Fatal("an auto-vivified but unset child must still read as absent via Has")
	}
}

func TestAutoVivifyArray(t *testing.T) {
	v := NewNull()
	v.Index(2).Clear()
	if !v.IsArray() {
		t.Fatalf("expected null to promote to array after Index(), got %s", v.Kind())
	}
	if n, _ := v.Size(); n != 3 {
		t.Fatalf("expected array grown to length 3, got %d", n)
	}
}

func TestHasTreatsStoredNullAsAbsent(t *testing.T) {
	obj := NewObject()
	obj.Set("present", NewString("x"))
	obj.Set("explicitNull", NewNull())

	if !obj.Has("present") {
		t.Fatal("expected Has(present) true")
	}
	if obj.Has("explicitNull") {
		t.Fatal("expected Has(explicitNull) false: stored null must read as absent")
	}
	if obj.Has("missing") {
		t.Fatal("expected Has(missing) false")
	}
}

func TestKeysLexicographicOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("zebra", NewInt(1))
	obj.Set("alpha", NewInt(2))
	obj.Set("mike", NewInt(3))

	got := obj.Keys()
	want := []string{"alpha", "mike", "zebra"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestSizeVariants(t *testing.T) {
	if n, err := NewNull().Size(); err != nil || n != 0 {
		t.Fatalf("null size = %d, %v; want 0, nil", n, err)
	}
	arr := NewArray()
	arr.Append(NewInt(1))
	arr.Append(NewInt(2))
	if n, err := arr.Size(); err != nil || n != 2 {
		t.Fatalf("array size = %d, %v; want 2, nil", n, err)
	}
	if _, err := NewInt(5).Size(); err == nil {
		t.Fatal("expected error sizing a scalar integer")
	}
}

func TestStrictAccessorsRejectMismatch(t *testing.T) {
	v := NewInt(5)
	if _, err := v.Str(); err == nil {
		t.Fatal("expected Str() to fail on an integer value")
	}
	if _, err := v.Bool(); err == nil {
		t.Fatal("expected Bool() to fail on an integer value without coercion")
	}
}

func TestCoercions(t *testing.T) {
	i := NewInt(7)
	b, err := i.AsBool()
	if err != nil || !b {
		t.Fatalf("AsBool() on nonzero int = %v, %v; want true, nil", b, err)
	}
	if !i.IsBool() {
		t.Fatal("AsBool should convert the underlying variant to bool")
	}

	zero := NewInt(0)
	if b, _ := zero.AsBool(); b {
		t.Fatal("AsBool() on zero int should be false")
	}

	d := NewFloat(3.9)
	n, err := d.AsInt()
	if err != nil || n != 3 {
		t.Fatalf("AsInt() truncation = %v, %v; want 3, nil", n, err)
	}

	i2 := NewInt(42)
	f, err := i2.AsFloat()
	if err != nil || f != 42.0 {
		t.Fatalf("AsFloat() widening = %v, %v; want 42, nil", f, err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Object{"a": Object{"b": 1}}.Build()
	clone := orig.Clone()
	clone.Key("a").Set("b", NewInt(99))

	got, _ := orig.Key("a").Key("b").Int()
	if got != 1 {
		t.Fatalf("mutating clone affected original: a.b = %d", got)
	}
}
