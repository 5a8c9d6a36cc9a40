package booking

import (
	"fmt"
	"time"
)

// Community is a tenant's court and booking-policy configuration. It is
// read-only to the engine.
type Community struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourtCount int    `json:"court_count"`

	OpenTime  TimeOfDay `json:"open_time"`
	CloseTime TimeOfDay `json:"close_time"`

	AllowedDurations []Minutes `json:"allowed_durations"`
	DefaultDuration  Minutes   `json:"default_duration"`

	// MaxConcurrentBookings caps an owner's today-or-future bookings. Zero
	// admits nothing.
	MaxConcurrentBookings     int  `json:"max_concurrent_bookings"`
	AllowSimultaneousBookings bool `json:"allow_simultaneous_bookings"`

	// Timezone is the IANA zone that defines "today" for the community.
	Timezone string `json:"timezone,omitempty"`
}

// Validate checks the configuration invariants the engine relies on.
func (c Community) Validate() error {
	if c.CourtCount < 1 {
		return fmt.Errorf("community %d: court_count must be at least 1", c.ID)
	}
	if c.OpenTime < 0 || c.CloseTime > minutesPerDay {
		return fmt.Errorf("community %d: hours must fall within one day", c.ID)
	}
	if c.OpenTime >= c.CloseTime {
		return fmt.Errorf("community %d: open_time %s must be before close_time %s", c.ID, c.OpenTime, c.CloseTime)
	}
	if len(c.AllowedDurations) == 0 {
		return fmt.Errorf("community %d: allowed_durations must not be empty", c.ID)
	}
	for _, d := range c.AllowedDurations {
		if !onGranularity(d) {
			return fmt.Errorf("community %d: allowed duration %d must be a positive multiple of %d minutes", c.ID, d, GridGranularity)
		}
	}
	if !onGranularity(c.DefaultDuration) {
		return fmt.Errorf("community %d: default duration %d must be a positive multiple of %d minutes", c.ID, c.DefaultDuration, GridGranularity)
	}
	if c.MaxConcurrentBookings < 0 {
		return fmt.Errorf("community %d: max_concurrent_bookings must be 0 or greater", c.ID)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("community %d: %w", c.ID, err)
	}
	return nil
}

func onGranularity(d Minutes) bool {
	return d > 0 && d%GridGranularity == 0
}

// AllowsDuration reports whether d may be booked: it is one of the allowed
// durations or the default duration.
func (c Community) AllowsDuration(d Minutes) bool {
	if d <= 0 {
		return false
	}
	if d == c.DefaultDuration {
		return true
	}
	for _, allowed := range c.AllowedDurations {
		if allowed == d {
			return true
		}
	}
	return false
}

// HasCourt reports whether court addresses one of the community's courts.
func (c Community) HasCourt(court int) bool {
	return court >= 1 && court <= c.CourtCount
}

// Hours returns the opening window as an interval.
func (c Community) Hours() Interval {
	return Interval{Start: c.OpenTime, End: c.CloseTime}
}

// Location resolves the community timezone, defaulting to UTC.
func (c Community) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LocalNow converts an absolute instant to the community's calendar day and
// wall-clock minute. An unloadable timezone falls back to UTC.
func (c Community) LocalNow(now time.Time) (Date, TimeOfDay) {
	loc, err := c.Location()
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return DateOf(local), TimeOfDayOf(local)
}
