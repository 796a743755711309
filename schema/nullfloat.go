package schema

import (
	"bytes"
	"encoding/json"
	"math"
)

// NullFloat is a float64 that decodes anything but a JSON number as NaN and
// encodes NaN or infinities as null. Strings are never coerced to numbers.
type NullFloat float64

// NewNullFloat wraps v.
func NewNullFloat(v float64) NullFloat {
	return NullFloat(v)
}

// NullFloatEmpty returns the missing value.
func NullFloatEmpty() NullFloat {
	return NullFloat(math.NaN())
}

// Valid reports whether the value is a finite number.
func (f NullFloat) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float64 returns the raw value.
func (f NullFloat) Float64() float64 {
	return float64(f)
}

// Ptr returns a pointer to a copy of f.
func (f NullFloat) Ptr() *NullFloat {
	return &f
}

// MarshalJSON encodes missing values as null.
func (f NullFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON decodes numbers; every other JSON value becomes NaN.
func (f *NullFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !(data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		*f = NullFloatEmpty()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = NullFloatEmpty()
		return nil
	}
	*f = NullFloat(v)
	return nil
}
