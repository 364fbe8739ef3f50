package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp is an instant persisted as Unix milliseconds
type Timestamp struct {
	time.Time
}

// Now returns the current instant truncated to millisecond precision
func Now() Timestamp {
	return TimestampOf(time.Now())
}

// TimestampOf wraps t, dropping sub-millisecond precision
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Time: time.UnixMilli(t.UnixMilli())}
}

// MarshalJSON encodes the timestamp as a number of milliseconds
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("0"), nil
	}
	return json.Marshal(t.UnixMilli())
}

// UnmarshalJSON accepts milliseconds or an RFC3339 string. An empty or
// unreadable string is the zero timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "0" {
		t.Time = time.Time{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, str)
		if err != nil {
			parsed = time.Time{}
		}
		t.Time = parsed
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", s, err)
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}

// DateLayout is the layout of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in its location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// In returns midnight of the date in loc
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Before reports whether d is strictly before other
func (d Date) Before(other Date) bool {
	return d.In(time.UTC).Before(other.In(time.UTC))
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d == Date{}
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or "" when unset
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string. Full RFC3339 timestamps
// written by older clients are truncated to their date. null, "" and
// anything unreadable leave the date unset; optional fields holding an
// unset date are cleared by Document.Normalize.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = DateOf(t)
			return nil
		}
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
	}
	return nil
}

// optionalDate drops unset dates so they are omitted again on write
func optionalDate(d *Date) *Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}
