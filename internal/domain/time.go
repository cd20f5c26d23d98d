package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the zone-less layout the metrics API emits.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout is the ISO date used for range query parameters and filenames.
const DateLayout = "2006-01-02"

// Timestamp decodes the API's zone-less timestamps as well as RFC 3339.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// MustTimestamp parses s with TimestampLayout and panics on failure.
func MustTimestamp(s string) Timestamp {
	t, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05", DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// MarshalJSON writes UTC times in the API's zone-less layout and any other
// offset as RFC 3339, so the instant survives a round trip.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	layout := TimestampLayout
	if _, offset := t.Zone(); offset != 0 {
		layout = time.RFC3339
	}
	return []byte(`"` + t.Format(layout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan lets sqlx read timestamp columns straight into records.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case nil:
		t.Time = time.Time{}
		return nil
	case string:
		parsed, err := ParseTimestamp(v)
		*t = parsed
		return err
	case []byte:
		parsed, err := ParseTimestamp(string(v))
		*t = parsed
		return err
	}
	return fmt.Errorf("cannot scan %T into Timestamp", src)
}

// Value stores the UTC instant; archive columns carry no zone.
func (t Timestamp) Value() (driver.Value, error) { return t.Time.UTC(), nil }

// DateRange is an inclusive calendar range. A zero bound means the caller
// left it open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// FromParam returns the ISO date for the lower bound, or "" when open.
func (r DateRange) FromParam() string { return dateParam(r.From) }

// ToParam returns the ISO date for the upper bound, or "" when open.
func (r DateRange) ToParam() string { return dateParam(r.To) }

// Contains reports whether t falls on or between the bound dates.
func (r DateRange) Contains(t time.Time) bool {
	day := t.Format(DateLayout)
	if !r.From.IsZero() && day < r.From.Format(DateLayout) {
		return false
	}
	if !r.To.IsZero() && day > r.To.Format(DateLayout) {
		return false
	}
	return true
}

// ParseDateRange builds a range from optional ISO date strings.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	var err error
	if from != "" {
		if r.From, err = time.Parse(DateLayout, from); err != nil {
			return DateRange{}, fmt.Errorf("invalid from date: %w", err)
		}
	}
	if to != "" {
		if r.To, err = time.Parse(DateLayout, to); err != nil {
			return DateRange{}, fmt.Errorf("invalid to date: %w", err)
		}
	}
	return r, nil
}

func dateParam(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
