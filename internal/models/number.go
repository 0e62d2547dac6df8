package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Number is a float64 that survives JSON round trips when it is not finite.
// NaN and infinities marshal as null; null unmarshals back to NaN. Sheet rows
// with non-numeric cells decode to NaN and must still be cacheable.
type Number float64

// NaN returns a not-a-number Number.
func NaN() Number { return Number(math.NaN()) }

// IsFinite reports whether n is neither NaN nor infinite.
func (n Number) IsFinite() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String formats n in the shortest form, "NaN" for not-a-number.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.IsFinite() {
		return []byte("null"), nil
	}
	return []byte(n.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
