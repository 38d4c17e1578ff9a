package dabjson

// FromStrings builds an array Value from a slice of Go strings, in order.
// The Object/Array builders use it for []string leaves.
func FromStrings(ss []string) *Value {
	v := NewArray()
	for _, s := range ss {
		v.Append(NewString(s))
	}
	return v
}

// Object is a convenience builder for literal object construction from
// plain Go values, analogous to the source's initializer-list constructor
// but expressed as an explicit builder rather than an overloaded literal
// syntax (idiomatic Go has no operator overloading to lean on here).
type Object map[string]any

// Build converts an Object builder into a *Value tree. Supported leaf types
// are string, bool, int, int64, float64, *Value, []string, and nested
// Object/Array builders.
func (o Object) Build() *Value {
	v := NewObject()
	for k, raw := range o {
		v.Set(k, buildLeaf(raw))
	}
	return v
}

// Array is a convenience builder for literal array construction.
type Array []any

func (a Array) Build() *Value {
	v := NewArray()
	for _, raw := range a {
		v.Append(buildLeaf(raw))
	}
	return v
}

func buildLeaf(raw any) *Value {
	switch t := raw.(type) {
	case nil:
		return NewNull()
	case *Value:
		return t
	case string:
		return NewString(t)
	case bool:
		return NewBool(t)
	case int:
		return NewInt(int64(t))
	case int64:
		return NewInt(t)
	case float64:
		return NewFloat(t)
	case []string:
		return FromStrings(t)
	case Object:
		return t.Build()
	case Array:
		return t.Build()
	default:
		return NewNull()
	}
}
