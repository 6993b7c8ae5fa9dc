package record

import (
	"fmt"
	"math"
)

// Kind tags the underlying type of a property value
type Kind int

const (
	// Absent is the zero Kind, a property that is missing or null
	Absent Kind = iota
	String
	Int
	Float
	Float32
	Bool
)

// String ...
func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "double"
	case Float32:
		return "float"
	case Bool:
		return "boolean"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a tagged union over the property types a record can carry.
// The zero Value is Absent.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	f32  float32
	b    bool
}

// StringValue ...
func StringValue(s string) Value { return Value{kind: String, s: s} }

// IntValue ...
func IntValue(i int64) Value { return Value{kind: Int, i: i} }

// FloatValue ...
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }

// Float32Value holds a single-precision number as stored by the source
func Float32Value(f float32) Value { return Value{kind: Float32, f32: f} }

// BoolValue ...
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// Kind ...
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is missing or null
func (v Value) IsAbsent() bool { return v.kind == Absent }

// Str returns the string payload and whether the value is a String
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// Interface returns the Go value handed to a JSON encoder, nil for Absent
func (v Value) Interface() interface{} {
	switch v.kind {
	case String:
		return v.s
	case Int:
		return v.i
	case Float:
		return v.f
	case Float32:
		return v.f32
	case Bool:
		return v.b
	}
	return nil
}

// String ...
func (v Value) String() string {
	if v.kind == Absent {
		return "<absent>"
	}
	return fmt.Sprintf("%v", v.Interface())
}

// FromInterface converts a decoded value (yaml, json, sql driver) into a Value.
// Types with no direct mapping are rendered with %v as a String.
func FromInterface(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Value{}
	case string:
		return StringValue(v)
	case []byte:
		return StringValue(string(v))
	case bool:
		return BoolValue(v)
	case int:
		return IntValue(int64(v))
	case int32:
		return IntValue(int64(v))
	case int64:
		return IntValue(v)
	case uint64:
		if v > math.MaxInt64 {
			return FloatValue(float64(v))
		}
		return IntValue(int64(v))
	case float32:
		return Float32Value(v)
	case float64:
		return FloatValue(v)
	}
	return StringValue(fmt.Sprintf("%v", raw))
}

// AsFloat coerces a coordinate value to float64. Double, single-precision
// and integer values convert; every other kind reports false.
func AsFloat(v Value) (float64, bool) {
	switch v.kind {
	case Float:
		return v.f, true
	case Float32:
		return float64(v.f32), true
	case Int:
		return float64(v.i), true
	}
	return 0, false
}
