package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText_Classification(t *testing.T) {
	tests := []struct {
		in     string
		kind   Kind
		render string
	}{
		{"42", Integer, "42"},
		{"-7", Integer, "-7"},
		{"3.0", Integer, "3"},
		{"1e3", Integer, "1000"},
		{"3.5", Float, "3.500"},
		{"-0.125", Float, "-0.125"},
		{"2.71828", Float, "2.718"},
		{"true", Boolean, "true"},
		{"false", Boolean, "false"},
		{"TRUE", Text, `"TRUE"`},
		{"hello", Text, `"hello"`},
		{"", Text, `""`},
		{" 42", Text, `" 42"`},
		{`say "hi"`, Text, `"say "hi""`},
		{"inf", Float, "inf"},
		{"-inf", Float, "-inf"},
		{"1e400", Float, "inf"},
		{"-1e400", Float, "-inf"},
		{"9223372036854775807", Integer, "9223372036854775807"},
		{"-9223372036854775808", Integer, "-9223372036854775808"},
		{"1e20", Integer, "9223372036854775807"},
		{"-1e20", Integer, "-9223372036854775808"},
		{"1e30", Integer, "9223372036854775807"},
		{"-0", Integer, "0"},
		{"0x1p4", Text, `"0x1p4"`},
		{"-0X10", Text, `"-0X10"`},
		{"0x_1p-2", Text, `"0x_1p-2"`},
		{"1_000", Text, `"1_000"`},
		{"+-1", Text, `"+-1"`},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			v := FromText(tc.in)
			assert.Equal(t, tc.kind, v.Kind())
			assert.Equal(t, tc.render, v.String())
		})
	}
}

func TestFromText_Deterministic(t *testing.T) {
	for _, in := range []string{"42", "3.5", "true", "hello", "nan", "-0"} {
		a, b := FromText(in), FromText(in)
		assert.Equal(t, a.Kind(), b.Kind(), in)
		assert.Equal(t, a.String(), b.String(), in)
	}
}

func TestRender_RoundTrip(t *testing.T) {
	assert.Equal(t, "42", FromText("42").String())
	assert.Equal(t, "3.500", FromText("3.5").String())
	assert.Equal(t, "true", FromText("true").String())
	assert.Equal(t, `"hello"`, FromText("hello").String())
}

func TestFromText_NaNStaysFloat(t *testing.T) {
	v := FromText("NaN")
	require.Equal(t, Float, v.Kind())
	assert.True(t, math.IsNaN(v.f))
	assert.Equal(t, "NaN", v.String())
}

func TestFromText_SaturatesAtBounds(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), FromText("9223372036854775807").Native())
	assert.Equal(t, int64(math.MaxInt64), FromText("9.3e18").Native())
	assert.Equal(t, int64(math.MinInt64), FromText("-9.3e18").Native())
	assert.Equal(t, int64(1<<53), FromText("9007199254740992").Native())
}

func TestNative(t *testing.T) {
	assert.Equal(t, int64(42), FromText("42").Native())
	assert.Equal(t, 3.5, FromText("3.5").Native())
	assert.Equal(t, true, FromText("true").Native())
	assert.Equal(t, "hello", FromText("hello").Native())
	assert.Equal(t, "inf", FromText("inf").Native())
	assert.Equal(t, "-inf", FromText("-inf").Native())
}

func TestZeroValueIsEmptyText(t *testing.T) {
	var v Value
	assert.Equal(t, Text, v.Kind())
	assert.Equal(t, `""`, v.String())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "text", Text.String())
	assert.Equal(t, "integer", Integer.String())
	assert.Equal(t, "float", Float.String())
	assert.Equal(t, "boolean", Boolean.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
