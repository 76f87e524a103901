package value

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind identifies the dynamic type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the dynamically-typed value used throughout the engine.
//
// It covers the JSON data model: null, bool, int64, float64, string,
// array and object. The zero Value is null.
//
// Values are immutable once constructed; copying a Value is cheap for
// scalars and shares the backing slice/map for arrays and objects.
// Conversion to and from JSON happens at the configuration boundary only —
// evaluation hot paths operate on Value directly.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Bool wraps a bool.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int wraps an int64.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float wraps a float64.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// String wraps a string.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Array wraps a slice of values. The slice is not copied.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Object wraps a map of values. The map is not copied; nil becomes an
// empty object.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: fields}
}

// Kind returns the dynamic type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBool reports whether the value is a bool.
func (v Value) IsBool() bool { return v.kind == KindBool }

// IsNumber reports whether the value is an int or a float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsArray reports whether the value is an array.
func (v Value) IsArray() bool { return v.kind == KindArray }

// IsObject reports whether the value is an object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// Bool returns the boolean payload, or false if the value is not a bool.
func (v Value) Bool() bool {
	return v.kind == KindBool && v.b
}

// Int returns the value as an int64. Floats are truncated; non-numbers
// return 0.
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	default:
		return 0
	}
}

// Float returns the value as a float64. Ints are promoted; non-numbers
// return 0.
func (v Value) Float() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	default:
		return 0
	}
}

// Str returns the string payload, or "" if the value is not a string.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Items returns the array payload, or nil if the value is not an array.
func (v Value) Items() []Value {
	if v.kind == KindArray {
		return v.arr
	}
	return nil
}

// Fields returns the object payload, or nil if the value is not an object.
func (v Value) Fields() map[string]Value {
	if v.kind == KindObject {
		return v.obj
	}
	return nil
}

// Field returns the named member of an object value. Missing keys and
// non-object receivers return null.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Null()
	}
	return v.obj[name]
}

// Truthy coerces the value to a bool.
//
// null, false, 0, "" and empty arrays/objects are false; everything else
// is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return len(v.obj) > 0
	default:
		return false
	}
}

// Equal reports deep equality between two values.
//
// Numbers compare by promoted float, so Int(3) equals Float(3.0).
// null equals only null. Values of different non-numeric kinds are never
// equal.
func (v Value) Equal(o Value) bool {
	if v.IsNumber() && o.IsNumber() {
		return v.Float() == o.Float()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, mv := range v.obj {
			ov, ok := o.obj[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two values.
//
// It returns -1, 0 or 1 and true when the values are ordered: both numeric
// (promoted to float) or both strings (lexicographic). Any other pairing is
// unordered and returns ok=false, which makes cross-type <, >, <=, >=
// comparisons evaluate to false.
func (v Value) Compare(o Value) (int, bool) {
	if v.IsNumber() && o.IsNumber() {
		a, b := v.Float(), o.Float()
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		default:
			return 0, true
		}
	}
	if v.kind == KindString && o.kind == KindString {
		switch {
		case v.s < o.s:
			return -1, true
		case v.s > o.s:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// FromAny converts a decoded JSON value (the any-shaped output of
// encoding/json) into a Value.
//
// json.Number and all Go numeric types are accepted; whole floats decode
// as ints so config literals like 40 compare cleanly against sensor ints.
func FromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < 1e15 {
			return Int(int64(t))
		}
		return Float(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
		return String(t.String())
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return Array(items...)
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = FromAny(item)
		}
		return Object(fields)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// ToAny converts the value back into the any-shaped form encoding/json
// understands.
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.ToAny()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// String renders the value for logs and error messages. Objects render
// with sorted keys so output is deterministic.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindArray:
		out := "["
		for i, item := range v.arr {
			if i > 0 {
				out += ","
			}
			out += item.String()
		}
		return out + "]"
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			out += k + ":" + v.obj[k].String()
		}
		return out + "}"
	default:
		return ""
	}
}
