// Package value defines the scalar values held by the store.
//
// A Value is one of four variants: text, integer, float or boolean. FromText
// classifies raw caller input into exactly one variant, trying a float parse
// first (integral floats become integers), then a boolean parse, and falling
// back to text. Classification never fails.
//
// String renders the canonical display form used in responses: text is wrapped
// in double quotes without escaping embedded quotes, floats always show three
// fractional digits, integers and booleans render as plain literals. Because
// embedded quotes are not escaped the display form is not guaranteed to be
// valid JSON; JSON encoders should use Native instead.
package value
