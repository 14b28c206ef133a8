// Package models provides the response bodies of the HTTP API. Field names
// follow the JSON the map clients already consume.
package models

import "time"

// Timestamp marshals as an ISO-8601 UTC instant with millisecond precision.
type Timestamp time.Time

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(timestampLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 {
		return &time.ParseError{Value: string(data), Message: ": timestamp must be a JSON string"}
	}
	parsed, err := time.Parse(time.RFC3339Nano, string(data[1:len(data)-1]))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IntPoint is a route vertex in whole map units.
type IntPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TextValue pairs a display string with its numeric value.
type TextValue[T int | float64] struct {
	Text  string `json:"text"`
	Value T      `json:"value"`
}
