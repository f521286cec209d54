// Package dates holds the calendar-date type used on the wire. Loan and
// publication fields are dates, not instants; normalizing to UTC midnight
// keeps comparisons exact.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date (no time component) that marshals as "2006-01-02".
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.Format(time.DateOnly) + `"`), nil
}

// Of truncates a timestamp to its calendar date in UTC.
func Of(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
