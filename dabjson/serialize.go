package dabjson

import (
	"strconv"
)

const hexDigits = "0123456789ABCDEF"

// Serialize emits compact JSON for v with quoted object keys. KindObject
// members are emitted in lexicographic key order; Value has no insertion
// order to begin with, so there's nothing else to sort by.
func Serialize(v *Value) []byte {
	var buf []byte
	buf = appendValue(buf, v, true)
	return buf
}

// SerializeUnquotedKeys is the same as Serialize but with object key
// quoting disabled. This mode is used internally only (e.g. debug dumps);
// the wire form produced for MQTT payloads always goes through Serialize.
func SerializeUnquotedKeys(v *Value) []byte {
	var buf []byte
	buf = appendValue(buf, v, false)
	return buf
}

func appendValue(buf []byte, v *Value, quoteNames bool) []byte {
	if v == nil {
		return append(buf, "null"...)
	}
	switch v.kind {
	case KindObject:
		buf = append(buf, '{')
		keys := v.Keys()
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			if quoteNames {
				buf = append(buf, '"')
				buf = append(buf, k...)
				buf = append(buf, '"')
			} else {
				buf = append(buf, k...)
			}
			buf = append(buf, ':')
			buf = appendValue(buf, v.obj[k], quoteNames)
		}
		buf = append(buf, '}')
	case KindArray:
		buf = append(buf, '[')
		for i, e := range v.arr {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendValue(buf, e, quoteNames)
		}
		buf = append(buf, ']')
	case Int:
		buf = append(buf, strconv.FormatInt(v.i, 10)...)
	case Float:
		// Fixed-notation, shortest round-tripping representation.
		buf = append(buf, strconv.FormatFloat(v.f, 'f', -1, 64)...)
	case String:
		buf = appendString(buf, v.s)
	case Bool:
		if v.b {
			buf = append(buf, "true"...)
		} else {
			buf = append(buf, "false"...)
		}
	case Null:
		buf = append(buf, "null"...)
	}
	return buf
}

// appendString escapes " \ \r \n \t and encodes any byte <0x20 or >0x7F as
// %XX (two uppercase hex digits).
func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if c < 0x20 || c > 0x7F {
				buf = append(buf, '%', hexDigits[c>>4], hexDigits[c&0x0F])
			} else {
				buf = append(buf, c)
			}
		}
	}
	buf = append(buf, '"')
	return buf
}

// String returns the compact, key-quoted serialization of v as a string.
func (v *Value) String() string {
	return string(Serialize(v))
}
