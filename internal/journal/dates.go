package journal

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in UTC.
func Today() time.Time {
	return Day(time.Now().UTC())
}

// ParseDate parses a YYYY-MM-DD string. Blank yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q, want %s", ErrInvalidDate, s, DateLayout)
	}
	return t, nil
}

// Range is an inclusive calendar-date window. A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange builds a Range from optional YYYY-MM-DD bounds.
func ParseRange(from, to string) (Range, error) {
	f, err := ParseDate(from)
	if err != nil {
		return Range{}, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return Range{}, err
	}
	return NewRange(f, t)
}

// NewRange normalises both bounds to calendar dates and checks ordering.
func NewRange(from, to time.Time) (Range, error) {
	r := Range{}
	if !from.IsZero() {
		r.From = Day(from)
	}
	if !to.IsZero() {
		r.To = Day(to)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return Range{}, ErrInvalidRange
	}
	return r, nil
}

// Contains reports whether the calendar date of d falls inside the range.
func (r Range) Contains(d time.Time) bool {
	d = Day(d)
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// IsUnbounded reports whether neither bound is set.
func (r Range) IsUnbounded() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Key is a stable textual form of the range, used for cache keys.
func (r Range) Key() string {
	return formatBound(r.From, "start") + ":" + formatBound(r.To, "end")
}

func formatBound(t time.Time, open string) string {
	if t.IsZero() {
		return open
	}
	return t.Format(DateLayout)
}
