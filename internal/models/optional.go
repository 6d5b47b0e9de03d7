// internal/models/optional.go
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// OptFloat is a number that may be unknown. Absent, null, empty and
// non-numeric inputs all decode to the unknown state rather than zero.
type OptFloat struct {
	Value float64
	Valid bool
}

// Some returns a known value.
func Some(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// Get returns the value and whether it is known.
func (o OptFloat) Get() (float64, bool) {
	return o.Value, o.Valid
}

// OrNil returns nil for unknown values, for SQL parameters.
func (o OptFloat) OrNil() interface{} {
	if !o.Valid {
		return nil
	}
	return o.Value
}

func (o OptFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*o = OptFloat{}
			return nil
		}
		return o.UnmarshalText([]byte(s))
	}
	return o.UnmarshalText(data)
}

// UnmarshalText also serves CSV decoding.
func (o *OptFloat) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "null" {
		*o = OptFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*o = OptFloat{}
		return nil
	}
	*o = Some(v)
	return nil
}

func (o OptFloat) MarshalText() ([]byte, error) {
	if !o.Valid {
		return []byte{}, nil
	}
	return []byte(strconv.FormatFloat(o.Value, 'f', -1, 64)), nil
}
