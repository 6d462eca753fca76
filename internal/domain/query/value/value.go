// Package value turns raw query-string parameters into typed filter values.
package value

import (
	"regexp"
	"strconv"
)

// Kind is the type picked by coercion.
type Kind int

const (
	// KindString keeps the raw parameter unchanged.
	KindString Kind = iota
	// KindInt is an integral number without fraction or exponent.
	KindInt
	// KindFloat is any other number.
	KindFloat
	// KindBool is exactly "true" or "false".
	KindBool
)

// String returns a readable kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Plain decimal literals only: no whitespace, hex, underscores, NaN or Inf.
var (
	intRegex    = regexp.MustCompile(`^[+-]?[0-9]+$`)
	numberRegex = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// Value is a coerced parameter: exactly one of number, bool or string.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// Coerce parses raw into the most specific value. It never fails.
//
// A raw string matching the decimal grammar becomes a number: int64 when it has no
// fraction or exponent and fits, float64 otherwise. "true" and "false" become
// booleans. Everything else, including "", " 5", "NaN" and "0x10", stays a string.
func Coerce(raw string) Value {
	if intRegex.MatchString(raw) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Value{kind: KindInt, i: i, f: float64(i)}
		}
	}
	if numberRegex.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Value{kind: KindFloat, f: f}
		}
	}
	switch raw {
	case "true":
		return Value{kind: KindBool, b: true}
	case "false":
		return Value{kind: KindBool, b: false}
	}
	return Value{kind: KindString, s: raw}
}

// String wraps s without coercion.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the coerced kind.
func (v Value) Kind() Kind { return v.kind }

// IsNumber reports whether the value is an int or a float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Float returns the numeric payload as float64 (also set for ints).
func (v Value) Float() float64 { return v.f }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Str returns the string payload.
func (v Value) Str() string { return v.s }

// Any returns the native Go value: int64, float64, bool or string.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return v.s
	}
}
