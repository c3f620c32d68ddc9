// Package scalar implements the tagged scalar layer: a closed set of
// element types and a discriminated union of values over them, with
// canonical fill values and valid ranges per type.
package scalar

import (
	"math"

	"github.com/harpgo/harp/internal/harperr"
)

// Type is the closed set of element types a Variable's buffer may hold.
type Type int

const (
	Int8 Type = iota
	Int16
	Int32
	Float32
	Float64
	String
)

func (t Type) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Size returns the element's in-buffer footprint in bytes. String
// elements are variable length (owned Go strings); Size reports the
// width of the pointer-sized slot used to address them, which is the
// granularity Transpose/InvertAxis fast paths key off of.
func (t Type) Size() int {
	switch t {
	case Int8:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Float64:
		return 8
	case String:
		return 8
	default:
		return 0
	}
}

// IsNumeric reports whether t participates in numeric conversion.
func (t Type) IsNumeric() bool { return t != String }

// IsInteger reports whether t is one of the integer element types.
func (t Type) IsInteger() bool {
	return t == Int8 || t == Int16 || t == Int32
}

// IsFloat reports whether t is one of the floating element types.
func (t Type) IsFloat() bool {
	return t == Float32 || t == Float64
}

// Value is a tagged scalar: exactly one of the typed fields is
// meaningful, selected by Type. Accessors panic on a type mismatch
// rather than silently returning a zero value, so callers cannot read
// payload.String off an int tag by accident.
type Value struct {
	typ Type
	i   int32
	f   float64
	s   *string
}

// Int8Value returns a Value tagged as an 8-bit integer.
func Int8Value(v int8) Value { return Value{typ: Int8, i: int32(v)} }

// Int16Value returns a Value tagged as a 16-bit integer.
func Int16Value(v int16) Value { return Value{typ: Int16, i: int32(v)} }

// Int32Value returns a Value tagged as a 32-bit integer.
func Int32Value(v int32) Value { return Value{typ: Int32, i: v} }

// Float32Value returns a Value tagged as a 32-bit float.
func Float32Value(v float32) Value { return Value{typ: Float32, f: float64(v)} }

// Float64Value returns a Value tagged as a 64-bit float.
func Float64Value(v float64) Value { return Value{typ: Float64, f: v} }

// StringValue returns a Value tagged as a string. A nil s represents the
// string fill value (the "null" entry ).
func StringValue(s *string) Value { return Value{typ: String, s: s} }

// Type reports the Value's element type tag.
func (v Value) Type() Type { return v.typ }

// Int returns the integer payload, panicking if v is not an integer type.
func (v Value) Int() int64 {
	if !v.typ.IsInteger() {
		panic("scalar: Int() called on non-integer Value")
	}
	return int64(v.i)
}

// Float returns the float payload, panicking if v is not a float type.
func (v Value) Float() float64 {
	if !v.typ.IsFloat() {
		panic("scalar: Float() called on non-float Value")
	}
	return v.f
}

// Str returns the string payload (nil means the fill/null entry),
// panicking if v is not a String value.
func (v Value) Str() *string {
	if v.typ != String {
		panic("scalar: Str() called on non-string Value")
	}
	return v.s
}

// FillValue returns the canonical "missing" value for t: zero for
// integers, NaN for floats, a nil string for String.
func FillValue(t Type) Value {
	switch t {
	case Int8:
		return Int8Value(0)
	case Int16:
		return Int16Value(0)
	case Int32:
		return Int32Value(0)
	case Float32:
		return Float32Value(float32(math.NaN()))
	case Float64:
		return Float64Value(math.NaN())
	case String:
		return StringValue(nil)
	default:
		panic("scalar: FillValue of unknown type")
	}
}

// ValidMin returns the canonical minimum of the type's valid range:
// type extrema for integers, -Inf for floats. Undefined for String.
func ValidMin(t Type) Value {
	switch t {
	case Int8:
		return Int8Value(math.MinInt8)
	case Int16:
		return Int16Value(math.MinInt16)
	case Int32:
		return Int32Value(math.MinInt32)
	case Float32:
		return Float32Value(float32(math.Inf(-1)))
	case Float64:
		return Float64Value(math.Inf(-1))
	default:
		panic("scalar: ValidMin of non-numeric type")
	}
}

// ValidMax returns the canonical maximum of the type's valid range:
// type extrema for integers, +Inf for floats. Undefined for String.
func ValidMax(t Type) Value {
	switch t {
	case Int8:
		return Int8Value(math.MaxInt8)
	case Int16:
		return Int16Value(math.MaxInt16)
	case Int32:
		return Int32Value(math.MaxInt32)
	case Float32:
		return Float32Value(float32(math.Inf(1)))
	case Float64:
		return Float64Value(math.Inf(1))
	default:
		panic("scalar: ValidMax of non-numeric type")
	}
}

// IsFill reports whether v equals the canonical fill value of its type.
// NaN floats compare fill-equal to any NaN, matching the IEEE-754 "NaN
// marks missing data" convention used throughout.
func IsFill(v Value) bool {
	switch v.typ {
	case Int8, Int16, Int32:
		return v.i == 0
	case Float32, Float64:
		return math.IsNaN(v.f)
	case String:
		return v.s == nil
	default:
		return false
	}
}

// AsFloat64 widens any numeric Value to float64, the common currency
// used by unit conversion and derivation arithmetic.
func AsFloat64(v Value) (float64, error) {
	switch v.typ {
	case Int8, Int16, Int32:
		return float64(v.i), nil
	case Float32, Float64:
		return v.f, nil
	default:
		return 0, harperr.New(harperr.InvalidArgument, "cannot convert %s to float64", v.typ)
	}
}

// ConvertNumeric performs a range-checked cast of v to target, returning
// an error if the value would lose range. Converting a float to an
// integer truncates toward zero after the range check. String values
// cannot be numerically converted.
func ConvertNumeric(v Value, target Type) (Value, error) {
	if v.typ == String || target == String {
		return Value{}, harperr.New(harperr.InvalidArgument, "string values are not numerically convertible")
	}

	f, err := AsFloat64(v)
	if err != nil {
		return Value{}, err
	}

	if math.IsNaN(f) {
		return FillValue(target), nil
	}

	switch target {
	case Int8:
		if f < math.MinInt8 || f > math.MaxInt8 {
			return Value{}, harperr.New(harperr.InvalidArgument, "value %v out of range for int8", f)
		}
		return Int8Value(int8(f)), nil
	case Int16:
		if f < math.MinInt16 || f > math.MaxInt16 {
			return Value{}, harperr.New(harperr.InvalidArgument, "value %v out of range for int16", f)
		}
		return Int16Value(int16(f)), nil
	case Int32:
		if f < math.MinInt32 || f > math.MaxInt32 {
			return Value{}, harperr.New(harperr.InvalidArgument, "value %v out of range for int32", f)
		}
		return Int32Value(int32(f)), nil
	case Float32:
		if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return Value{}, harperr.New(harperr.InvalidArgument, "value %v out of range for float32", f)
		}
		return Float32Value(float32(f)), nil
	case Float64:
		return Float64Value(f), nil
	default:
		return Value{}, harperr.New(harperr.InvalidArgument, "unknown target type")
	}
}

// Compare orders two numeric Values; it panics on String values, which
// have no total order relevant to the DSL's scalar comparators (string
// comparisons are handled directly by callers via ==/!=).
func Compare(a, b Value) int {
	af, aerr := AsFloat64(a)
	bf, berr := AsFloat64(b)
	if aerr != nil || berr != nil {
		panic("scalar: Compare called on non-numeric Value")
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}
