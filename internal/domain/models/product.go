package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultUnit and DefaultCategory are applied when the backend omits them.
const (
	DefaultUnit     = "units"
	DefaultCategory = "Other"
)

// Product is the canonical, backend-shape-independent product representation.
type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	Unit       string   `json:"unit"`
	Categories []string `json:"categories"`
}

// RawProduct mirrors whatever the backend returns for a product. Field names
// drifted over time, so quantity may arrive as quantity or q and categories as
// categories, category or primaryCategory.
type RawProduct struct {
	ID              FlexString  `json:"id"`
	Name            string      `json:"name"`
	Quantity        *FlexNumber `json:"quantity,omitempty"`
	Q               *FlexNumber `json:"q,omitempty"`
	Unit            string      `json:"unit,omitempty"`
	Category        string      `json:"category,omitempty"`
	Categories      []string    `json:"categories,omitempty"`
	PrimaryCategory string      `json:"primaryCategory,omitempty"`
}

// FlexString accepts both JSON strings and numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(str))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		// Objects, arrays and booleans are not identifiers.
		*s = ""
		return nil
	}
	*s = FlexString(num.String())
	return nil
}

// FlexNumber accepts JSON numbers and numeric strings. Anything else decodes
// to NaN so normalization can treat it as invalid instead of failing the
// whole payload.
type FlexNumber float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			*n = FlexNumber(math.NaN())
			return nil
		}
		*n = FlexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*n = FlexNumber(math.NaN())
		return nil
	}
	*n = FlexNumber(v)
	return nil
}

// MarshalJSON keeps NaN from breaking encoding.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Num is a convenience constructor for optional raw quantities.
func Num(v float64) *FlexNumber {
	n := FlexNumber(v)
	return &n
}
