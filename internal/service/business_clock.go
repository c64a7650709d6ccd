package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidResetTime is returned when a reset time is not a valid HH:MM
var ErrInvalidResetTime = errors.New("reset time must be HH:MM")

// ResetTime is the local time of day at which token sequences restart
type ResetTime struct {
	Hour   int
	Minute int
}

// ParseResetTime parses an "HH:MM" string (24h clock)
func ParseResetTime(s string) (ResetTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ResetTime{}, fmt.Errorf("%w: %q", ErrInvalidResetTime, s)
	}
	return ResetTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (r ResetTime) String() string {
	return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
}

// BusinessDayOf returns the business day t falls in, as a UTC midnight date.
// A business day starts at the reset time in loc, so with a 06:00 reset an
// instant at 05:59 local still belongs to the previous calendar day.
func BusinessDayOf(t time.Time, reset ResetTime, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	minutes := local.Hour()*60 + local.Minute()
	if minutes < reset.Hour*60+reset.Minute {
		y, m, d = time.Date(y, m, d-1, 0, 0, 0, 0, time.UTC).Date()
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BusinessClock resolves the current business day from the live reset time
type BusinessClock struct {
	settings *SettingsHolder
	loc      *time.Location
	now      func() time.Time
}

func NewBusinessClock(settings *SettingsHolder, loc *time.Location) *BusinessClock {
	if loc == nil {
		loc = time.UTC
	}
	return &BusinessClock{settings: settings, loc: loc, now: time.Now}
}

// WithNow returns a copy of the clock that reads time from now
func (c *BusinessClock) WithNow(now func() time.Time) *BusinessClock {
	clone := *c
	clone.now = now
	return &clone
}

func (c *BusinessClock) Now() time.Time {
	return c.now()
}

// Today returns the business day of the current instant
func (c *BusinessClock) Today() time.Time {
	return c.DayOf(c.now())
}

// DayOf returns the business day of t under the current reset time
func (c *BusinessClock) DayOf(t time.Time) time.Time {
	return BusinessDayOf(t, c.settings.Current().TokenResetTime, c.loc)
}

func (c *BusinessClock) Location() *time.Location {
	return c.loc
}
