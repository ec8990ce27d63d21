// Package inmemory provides in-memory governor storage.
package inmemory

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

// CounterStore keeps fixed-window counters in process memory. Windows roll
// over lazily: a new window start is a new key, and keys for prior windows
// of the same kind are dropped on write.
type CounterStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewCounterStore constructs an empty counter store.
func NewCounterStore() *CounterStore {
	return &CounterStore{counts: make(map[string]int64)}
}

// Peek reads both counters without mutating them.
func (s *CounterStore) Peek(ctx context.Context, hour, day core.WindowRef) (int64, int64, error) {
	if s == nil {
		return 0, 0, errors.New("counter store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[windowKey(hour)], s.counts[windowKey(day)], nil
}

// Incr increments both counters as one atomic step.
func (s *CounterStore) Incr(ctx context.Context, hour, day core.WindowRef) (int64, int64, error) {
	if s == nil {
		return 0, 0, errors.New("counter store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll(hour)
	s.roll(day)
	hourKey, dayKey := windowKey(hour), windowKey(day)
	s.counts[hourKey]++
	s.counts[dayKey]++
	return s.counts[hourKey], s.counts[dayKey], nil
}

// CheckAndIncr increments both counters only if neither window is full.
func (s *CounterStore) CheckAndIncr(ctx context.Context, hour, day core.WindowRef) (int64, int64, bool, error) {
	if s == nil {
		return 0, 0, false, errors.New("counter store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll(hour)
	s.roll(day)
	hourKey, dayKey := windowKey(hour), windowKey(day)
	hourly, daily := s.counts[hourKey], s.counts[dayKey]
	if hourly >= hour.Limit || daily >= day.Limit {
		return hourly, daily, false, nil
	}
	s.counts[hourKey] = hourly + 1
	s.counts[dayKey] = daily + 1
	return hourly + 1, daily + 1, true, nil
}

// roll drops stale keys for the window's kind. Callers hold s.mu.
func (s *CounterStore) roll(ref core.WindowRef) {
	current := windowKey(ref)
	prefix := string(ref.Kind) + "|"
	for key := range s.counts {
		if key != current && len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(s.counts, key)
		}
	}
}

func windowKey(ref core.WindowRef) string {
	return string(ref.Kind) + "|" + strconv.FormatInt(ref.Start.Unix(), 10)
}
