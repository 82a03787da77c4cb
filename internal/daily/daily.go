// Package daily is the per-user per-day activity ledger. Its ad set is the
// only authority on whether a user was already credited for an ad today.
package daily

import (
	"time"
)

// DayKey returns the yyyymmdd integer of t's calendar date in loc.
func DayKey(t time.Time, loc *time.Location) int {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Calendar yields the current day key for the configured location.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

func NewCalendar(loc *time.Location) *Calendar {
	return &Calendar{loc: loc, now: time.Now}
}

// NewFixedCalendar returns a calendar whose clock is now. Tests use it to
// cross day boundaries.
func NewFixedCalendar(loc *time.Location, now func() time.Time) *Calendar {
	return &Calendar{loc: loc, now: now}
}

func (c *Calendar) Today() int {
	return DayKey(c.now(), c.loc)
}

// DaysAgo returns the day key n calendar days before today.
func (c *Calendar) DaysAgo(n int) int {
	t := c.now()
	if c.loc != nil {
		t = t.In(c.loc)
	}
	return DayKey(t.AddDate(0, 0, -n), c.loc)
}
