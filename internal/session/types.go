package session

import (
	"time"

	"github.com/relvacode/iso8601"
)

// Timestamp is a point in time serialised as an ISO 8601 string.
type Timestamp time.Time

// NewTimestamp truncates t to whole seconds, the resolution of the log format.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.Truncate(time.Second))
}

// Time returns the underlying time.
func (ts Timestamp) Time() time.Time {
	return time.Time(ts)
}

// String formats the timestamp per RFC 3339.
func (ts Timestamp) String() string {
	return time.Time(ts).Format(time.RFC3339)
}

// MarshalText marshals the timestamp to an ISO 8601 string.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// UnmarshalText accepts any ISO 8601 date-time, with or without an offset.
func (ts *Timestamp) UnmarshalText(b []byte) error {
	parsed, err := iso8601.Parse(b)
	if err != nil {
		return err
	}
	*ts = Timestamp(parsed)
	return nil
}

// Measurement is one persisted, geotagged moving-average value.
type Measurement struct {
	Timestamp Timestamp `json:"timestamp"`
	Value     float64   `json:"value"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// ParameterChange audits the window size and save interval in effect from
// Timestamp onwards.
type ParameterChange struct {
	Timestamp Timestamp `json:"timestamp"`
	N         int       `json:"n"`
	B         int       `json:"B"`
}

// Document is the persisted form of one session.
type Document struct {
	StartTime        Timestamp         `json:"startTime"`
	Measurements     []Measurement     `json:"measurements"`
	ParameterChanges []ParameterChange `json:"parameterChanges"`
}
