package recordset

import (
	"math"
	"strconv"
	"strings"
)

// Value is a single cell. A missing value carries its column kind but no
// payload; it is distinct from zero and from empty text.
type Value struct {
	kind    Kind
	text    string
	num     float64
	missing bool
}

// TextValue returns a text cell.
func TextValue(s string) Value {
	return Value{kind: Text, text: s}
}

// FloatValue returns a float cell. NaN is stored as missing.
func FloatValue(f float64) Value {
	if math.IsNaN(f) {
		return Missing(Float)
	}
	return Value{kind: Float, num: f}
}

// Missing returns the missing marker for a column of the given kind.
func Missing(k Kind) Value {
	return Value{kind: k, missing: true}
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.missing }

// Text returns the text payload; empty for floats and missing values.
func (v Value) Text() string {
	if v.kind != Text || v.missing {
		return ""
	}
	return v.text
}

// Float returns the float payload and whether one is present.
func (v Value) Float() (float64, bool) {
	if v.kind != Float || v.missing {
		return 0, false
	}
	return v.num, true
}

// String renders the value for display. Missing values render as "".
func (v Value) String() string {
	if v.missing {
		return ""
	}
	if v.kind == Float {
		return FormatFloat(v.num)
	}
	return v.text
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.missing != o.missing {
		return false
	}
	if v.missing {
		return true
	}
	if v.kind == Float {
		return v.num == o.num
	}
	return v.text == o.text
}

// FormatFloat renders a float with the shortest round-trip representation,
// keeping a trailing ".0" on integral values (8241 -> "8241.0").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}
