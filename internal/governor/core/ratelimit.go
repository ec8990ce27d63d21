// Package core provides the fixed-window admission gate.
package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// WindowRef identifies one fixed quota window for a counter store.
type WindowRef struct {
	Kind  WindowKind
	Start time.Time
	TTL   time.Duration
	Limit int64
}

// CounterStore holds the per-window send counters. Keys are derived from the
// window kind and start instant, so an expired window is simply a key that is
// never incremented again; counts are never decremented in place.
type CounterStore interface {
	// Peek reads both counters without mutating them.
	Peek(ctx context.Context, hour, day WindowRef) (hourly, daily int64, err error)
	// Incr increments both counters as one atomic step and returns the new
	// values. A single send must be reflected in both windows or neither.
	Incr(ctx context.Context, hour, day WindowRef) (hourly, daily int64, err error)
	// CheckAndIncr increments both counters only if neither has reached its
	// limit, as one atomic step. It returns the resulting counts and whether
	// the increment was applied.
	CheckAndIncr(ctx context.Context, hour, day WindowRef) (hourly, daily int64, allowed bool, err error)
}

// RateLimiter gates outbound sends against hourly and daily fixed windows.
// Window boundaries are wall clock: the hour resets at the top of the hour
// and the day at local midnight.
type RateLimiter struct {
	mu          sync.Mutex
	store       CounterStore
	clock       Clock
	hourlyLimit int64
	dailyLimit  int64
}

// Default quota limits.
const (
	DefaultHourlyLimit = 100
	DefaultDailyLimit  = 1000
)

// NewRateLimiter constructs a rate limiter over a counter store.
func NewRateLimiter(store CounterStore, clock Clock, hourlyLimit, dailyLimit int64) (*RateLimiter, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if hourlyLimit <= 0 {
		hourlyLimit = DefaultHourlyLimit
	}
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return &RateLimiter{
		store:       store,
		clock:       clock,
		hourlyLimit: hourlyLimit,
		dailyLimit:  dailyLimit,
	}, nil
}

// Admit reports whether a send may proceed right now. It performs no
// mutation, so callers may check without committing. A clock failure denies
// admission.
func (rl *RateLimiter) Admit(ctx context.Context) (bool, error) {
	if rl == nil {
		return false, errors.New("rate limiter is nil")
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	hour, day, err := rl.windows()
	if err != nil {
		return false, err
	}
	hourly, daily, err := rl.store.Peek(ctx, hour, day)
	if err != nil {
		return false, Wrap(CodeStoreError, "counter read failed", err)
	}
	return hourly < hour.Limit && daily < day.Limit, nil
}

// Record counts one dispatched send against both windows. Call only after a
// message actually went out.
func (rl *RateLimiter) Record(ctx context.Context) error {
	if rl == nil {
		return errors.New("rate limiter is nil")
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	hour, day, err := rl.windows()
	if err != nil {
		return err
	}
	if _, _, err := rl.store.Incr(ctx, hour, day); err != nil {
		return Wrap(CodeStoreError, "counter increment failed", err)
	}
	return nil
}

// Reserve performs check-then-commit as a single critical section: it admits
// and records in one step so two near-simultaneous sends cannot both pass a
// pure check before either commits.
func (rl *RateLimiter) Reserve(ctx context.Context) (bool, error) {
	if rl == nil {
		return false, errors.New("rate limiter is nil")
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	hour, day, err := rl.windows()
	if err != nil {
		return false, err
	}
	_, _, allowed, err := rl.store.CheckAndIncr(ctx, hour, day)
	if err != nil {
		return false, Wrap(CodeStoreError, "counter reserve failed", err)
	}
	return allowed, nil
}

// Usage returns a read-only snapshot of both windows.
func (rl *RateLimiter) Usage(ctx context.Context) (UsageSnapshot, error) {
	if rl == nil {
		return UsageSnapshot{}, errors.New("rate limiter is nil")
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	hour, day, err := rl.windows()
	if err != nil {
		return UsageSnapshot{}, err
	}
	hourly, daily, err := rl.store.Peek(ctx, hour, day)
	if err != nil {
		return UsageSnapshot{}, Wrap(CodeStoreError, "counter read failed", err)
	}
	return UsageSnapshot{
		HourlyCount: hourly,
		HourlyLimit: hour.Limit,
		DailyCount:  daily,
		DailyLimit:  day.Limit,
		HourStart:   hour.Start,
		DayStart:    day.Start,
	}, nil
}

// UpdateLimits changes the configured limits without resetting counts.
func (rl *RateLimiter) UpdateLimits(hourlyLimit, dailyLimit int64) error {
	if rl == nil {
		return errors.New("rate limiter is nil")
	}
	if hourlyLimit <= 0 || dailyLimit <= 0 {
		return Wrap(CodeConfigInvalid, "limits must be positive", nil)
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.hourlyLimit = hourlyLimit
	rl.dailyLimit = dailyLimit
	return nil
}

// Limits returns the configured limits.
func (rl *RateLimiter) Limits() (hourly, daily int64) {
	if rl == nil {
		return 0, 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.hourlyLimit, rl.dailyLimit
}

// windows derives the current window refs. Callers hold rl.mu.
func (rl *RateLimiter) windows() (hour, day WindowRef, err error) {
	now, err := rl.clock.Now()
	if err != nil {
		return WindowRef{}, WindowRef{}, Wrap(CodeClockUnavailable, "clock unavailable", err)
	}
	hs := hourStart(now)
	ds := dayStart(now)
	hour = WindowRef{
		Kind:  WindowHour,
		Start: hs,
		TTL:   hs.Add(time.Hour).Sub(now),
		Limit: rl.hourlyLimit,
	}
	day = WindowRef{
		Kind:  WindowDay,
		Start: ds,
		TTL:   ds.AddDate(0, 0, 1).Sub(now),
		Limit: rl.dailyLimit,
	}
	return hour, day, nil
}
