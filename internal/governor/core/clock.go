// Package core provides the time source abstraction.
package core

import "time"

// Clock supplies wall-clock instants for window rollover and backoff
// scheduling. Implementations that cannot produce a reading return an
// error, and callers must treat that as a denial (fail closed).
type Clock interface {
	Now() (time.Time, error)
}

// SystemClock reads the local system clock.
type SystemClock struct {
	// Location used for wall-clock window boundaries. Defaults to time.Local.
	Location *time.Location
}

// Now returns the current local time.
func (c SystemClock) Now() (time.Time, error) {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc), nil
}

// hourStart returns the top of the wall-clock hour containing t.
func hourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// dayStart returns local midnight of the day containing t.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
