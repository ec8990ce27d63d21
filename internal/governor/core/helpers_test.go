package core_test

import (
	"errors"
	"sync"
	"time"
)

// testClock is a settable time source for exercising window rollover,
// backoff scheduling, and fail-closed behavior.
type testClock struct {
	mu   sync.Mutex
	now  time.Time
	fail bool
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return time.Time{}, errors.New("clock read failed")
	}
	return c.now, nil
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *testClock) SetFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

// testBase is mid-afternoon so hour and day rollovers can be exercised
// independently.
var testBase = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)
