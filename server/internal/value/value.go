package value

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	Text Kind = iota
	Integer
	Float
	Boolean
)

// String returns the lowercase variant name used in API payloads.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Value is a stored scalar. The zero Value is the empty text.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// NewText returns a text Value.
func NewText(s string) Value { return Value{kind: Text, s: s} }

// NewInteger returns an integer Value.
func NewInteger(i int64) Value { return Value{kind: Integer, i: i} }

// NewFloat returns a float Value. Integral floats are not coerced here;
// coercion is part of FromText classification only.
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }

// NewBoolean returns a boolean Value.
func NewBoolean(b bool) Value { return Value{kind: Boolean, b: b} }

// FromText classifies raw input. It tries, in order: a decimal float parse
// (kept as Integer when the fractional part is zero), a boolean parse
// ("true" or "false" only), and finally falls back to Text. It is total and
// deterministic.
func FromText(s string) Value {
	if f, ok := parseDecimal(s); ok {
		if integral(f) {
			return NewInteger(saturate(f))
		}
		return NewFloat(f)
	}

	switch s {
	case "true":
		return NewBoolean(true)
	case "false":
		return NewBoolean(false)
	}

	return NewText(s)
}

// parseDecimal parses s as a base-10 float. Hex mantissas and digit
// separators are rejected; out-of-range input yields ±Inf or 0.
func parseDecimal(s string) (float64, bool) {
	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 || strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// integral reports whether f is finite with no fractional part.
func integral(f float64) bool {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return f == math.Trunc(f)
}

// saturate converts an integral f to int64, clamping at the type bounds.
func saturate(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// String renders the canonical display form. Text is quoted but embedded
// quotes are not escaped.
func (v Value) String() string {
	switch v.kind {
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Float:
		switch {
		case math.IsInf(v.f, 1):
			return "inf"
		case math.IsInf(v.f, -1):
			return "-inf"
		}
		return strconv.FormatFloat(v.f, 'f', 3, 64)
	case Boolean:
		return strconv.FormatBool(v.b)
	default:
		return `"` + v.s + `"`
	}
}

// Native returns the Go value suitable for encoding/json. Non-finite floats
// have no JSON representation and are returned as their rendered string.
func (v Value) Native() any {
	switch v.kind {
	case Integer:
		return v.i
	case Float:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return v.String()
		}
		return v.f
	case Boolean:
		return v.b
	default:
		return v.s
	}
}
