// Package dabjson implements the tagged JSON value tree used as the wire
// format for every DAB request and response. It is a deliberately small
// value model rather than a wrapper over encoding/json: the dispatcher in
// package dab introspects this tree directly (auto-vivifying lookups,
// lexicographic object iteration, lenient coercions on read) in ways that
// don't map cleanly onto Go's native map[string]interface{}.
package dabjson

import (
	"fmt"
	"sort"
)

// Kind identifies which variant a Value currently holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "integer"
	case Float:
		return "double"
	case String:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged JSON value: null, bool, int64, float64, string, array or
// object. The zero Value is null. Numeric indexing via Index auto-promotes a
// null Value to an array; keyed indexing via Key auto-promotes a null Value
// to an object, the same auto-vivification adapters rely on when building
// responses.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []*Value
	obj  map[string]*Value
}

// NewNull returns a freshly constructed null value.
func NewNull() *Value { return &Value{kind: Null} }

// NewBool wraps a bool.
func NewBool(b bool) *Value { return &Value{kind: Bool, b: b} }

// NewInt wraps a signed 64-bit integer.
func NewInt(i int64) *Value { return &Value{kind: Int, i: i} }

// NewFloat wraps an IEEE-754 binary64 double.
func NewFloat(f float64) *Value { return &Value{kind: Float, f: f} }

// NewString wraps a string.
func NewString(s string) *Value { return &Value{kind: String, s: s} }

// NewArray returns an empty array value.
func NewArray() *Value { return &Value{kind: KindArray, arr: []*Value{}} }

// NewObject returns an empty object value.
func NewObject() *Value { return &Value{kind: KindObject, obj: map[string]*Value{}} }

// Kind reports which variant v currently holds.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

func (v *Value) IsNull() bool   { return v.Kind() == Null }
func (v *Value) IsBool() bool   { return v.Kind() == Bool }
func (v *Value) IsInt() bool    { return v.Kind() == Int }
func (v *Value) IsFloat() bool  { return v.Kind() == Float }
func (v *Value) IsString() bool { return v.Kind() == String }
func (v *Value) IsArray() bool  { return v.Kind() == KindArray }
func (v *Value) IsObject() bool { return v.Kind() == KindObject }

// Clear resets v back to null, discarding whatever it held.
func (v *Value) Clear() {
	*v = Value{kind: Null}
}

// Size returns the number of entries for an object or array, 0 for null,
// and is an error for any other scalar kind.
func (v *Value) Size() (int, error) {
	switch v.Kind() {
	case KindObject:
		return len(v.obj), nil
	case KindArray:
		return len(v.arr), nil
	case Null:
		return 0, nil
	default:
		return 0, fmt.Errorf("dabjson: size() not defined for %s", v.Kind())
	}
}

// Key returns a reference to the named member of an object value,
// auto-vivifying a null Value into an empty object first. Indexing a
// non-null, non-object value is an error condition signaled by returning a
// detached null Value (mirrors the C++ source's "object wins" promotion
// rule, which only ever applies starting from monostate/null).
func (v *Value) Key(name string) *Value {
	if v.kind == Null {
		v.kind = KindObject
		v.obj = map[string]*Value{}
	}
	if v.kind != KindObject {
		return NewNull()
	}
	child, ok := v.obj[name]
	if !ok {
		child = NewNull()
		v.obj[name] = child
	}
	return child
}

// Index returns a reference to the element at position i of an array value,
// auto-vivifying a null Value into an array and growing it as needed.
func (v *Value) Index(i int) *Value {
	if v.kind == Null {
		v.kind = KindArray
		v.arr = []*Value{}
	}
	if v.kind != KindArray {
		return NewNull()
	}
	for len(v.arr) <= i {
		v.arr = append(v.arr, NewNull())
	}
	return v.arr[i]
}

// Append adds elem to the back of an array value, auto-vivifying null into
// an empty array first.
func (v *Value) Append(elem *Value) {
	if v.kind == Null {
		v.kind = KindArray
		v.arr = []*Value{}
	}
	if v.kind != KindArray {
		return
	}
	v.arr = append(v.arr, elem)
}

// Set stores a value under name in an object, auto-vivifying null.
func (v *Value) Set(name string, elem *Value) {
	if v.kind == Null {
		v.kind = KindObject
		v.obj = map[string]*Value{}
	}
	if v.kind != KindObject {
		return
	}
	v.obj[name] = elem
}

// Lookup returns the named member of an object value without the
// auto-vivifying side effect Key has: a missing member or a non-object
// receiver yields (nil, false), and v is left unmodified either way. The
// parameter binder in package dab uses this instead of Key so that probing
// an envelope for an optional field never plants a spurious null member on
// it.
func (v *Value) Lookup(name string) (*Value, bool) {
	if v.Kind() != KindObject {
		return nil, false
	}
	child, ok := v.obj[name]
	if !ok || child.IsNull() {
		return nil, false
	}
	return child, true
}

// Has reports whether an object carries a non-null member under name. A
// stored null is treated as absent, matching the source's has() semantics;
// Lookup, which the dispatcher's parameter binder uses, applies the same
// rule when deciding whether a fixed/optional argument was supplied.
func (v *Value) Has(name string) bool {
	if v.Kind() != KindObject {
		return false
	}
	child, ok := v.obj[name]
	if !ok {
		return false
	}
	return !child.IsNull()
}

// Keys returns the object's member names in lexicographic byte order, the
// same order Serialize emits them in.
func (v *Value) Keys() []string {
	if v.Kind() != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Elements returns the array's elements in order. The returned slice aliases
// v's internal storage and must not be mutated by the caller.
func (v *Value) Elements() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.arr
}

// ---- strict typed read accessors ----
//
// These fail whenever the stored variant doesn't already match; they do not
// perform any of the integer/double/boolean coercions. Use the As* family
// below when a dispatcher-bound argument needs those coercions.

func (v *Value) Bool() (bool, error) {
	if v.Kind() != Bool {
		return false, fmt.Errorf("dabjson: expected bool, got %s", v.Kind())
	}
	return v.b, nil
}

func (v *Value) Int() (int64, error) {
	if v.Kind() != Int {
		return 0, fmt.Errorf("dabjson: expected integer, got %s", v.Kind())
	}
	return v.i, nil
}

func (v *Value) Float() (float64, error) {
	if v.Kind() != Float {
		return 0, fmt.Errorf("dabjson: expected double, got %s", v.Kind())
	}
	return v.f, nil
}

func (v *Value) Str() (string, error) {
	if v.Kind() != String {
		return "", fmt.Errorf("dabjson: expected string, got %s", v.Kind())
	}
	return v.s, nil
}

// ---- mutable coercing accessors ----
//
// AsBool/AsInt/AsFloat perform the three permitted implicit conversions
// (integer→boolean, double→integer truncation, integer→double widening),
// converting the underlying variant to the target type as a side effect of
// reading through a typed accessor.

// AsBool coerces a nonzero integer to true (zero to false) and otherwise
// requires the value already be a bool.
func (v *Value) AsBool() (bool, error) {
	switch v.kind {
	case Bool:
		return v.b, nil
	case Int:
		v.b = v.i != 0
		v.kind = Bool
		return v.b, nil
	default:
		return false, fmt.Errorf("dabjson: cannot coerce %s to bool", v.Kind())
	}
}

// AsInt truncates a double to an integer and otherwise requires the value
// already be an integer.
func (v *Value) AsInt() (int64, error) {
	switch v.kind {
	case Int:
		return v.i, nil
	case Float:
		v.i = int64(v.f)
		v.kind = Int
		return v.i, nil
	default:
		return 0, fmt.Errorf("dabjson: cannot coerce %s to integer", v.Kind())
	}
}

// AsFloat widens an integer to a double and otherwise requires the value
// already be a double.
func (v *Value) AsFloat() (float64, error) {
	switch v.kind {
	case Float:
		return v.f, nil
	case Int:
		v.f = float64(v.i)
		v.kind = Float
		return v.f, nil
	default:
		return 0, fmt.Errorf("dabjson: cannot coerce %s to double", v.Kind())
	}
}

// AsString requires the value already be a string; no implicit conversion
// to string is defined.
func (v *Value) AsString() (string, error) {
	return v.Str()
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return NewNull()
	}
	switch v.kind {
	case KindArray:
		out := make([]*Value, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Clone()
		}
		return &Value{kind: KindArray, arr: out}
	case KindObject:
		out := make(map[string]*Value, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.Clone()
		}
		return &Value{kind: KindObject, obj: out}
	default:
		cp := *v
		return &cp
	}
}
