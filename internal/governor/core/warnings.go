// Package core provides the bounded ban warning log.
package core

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Warning log retention defaults.
const (
	DefaultMaxWarnings      = 200
	DefaultWarningRetention = 30 * 24 * time.Hour
)

// WarningLog is an append-only, bounded history of risk trigger events.
// Whichever of the count bound and the age bound is stricter wins.
type WarningLog struct {
	mu        sync.Mutex
	entries   []BanWarning
	maxCount  int
	retention time.Duration
	clock     Clock
}

// NewWarningLog constructs a warning log with the given bounds.
func NewWarningLog(maxCount int, retention time.Duration, clock Clock) *WarningLog {
	if maxCount <= 0 {
		maxCount = DefaultMaxWarnings
	}
	if retention <= 0 {
		retention = DefaultWarningRetention
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &WarningLog{maxCount: maxCount, retention: retention, clock: clock}
}

// Append records a warning. The ID and timestamp are assigned here if unset;
// appending is the only way warnings are created and there is no unwarn.
func (wl *WarningLog) Append(warning BanWarning) (BanWarning, error) {
	if wl == nil {
		return BanWarning{}, errors.New("warning log is nil")
	}
	if warning.Type == "" {
		return BanWarning{}, ErrInvalidInput
	}
	now, err := wl.clock.Now()
	if err != nil {
		return BanWarning{}, Wrap(CodeClockUnavailable, "clock unavailable", err)
	}
	if warning.ID == "" {
		warning.ID = uuid.NewString()
	}
	if warning.Timestamp.IsZero() {
		warning.Timestamp = now
	}
	warning.Acknowledged = false

	wl.mu.Lock()
	defer wl.mu.Unlock()
	wl.entries = append(wl.entries, warning)
	wl.prune(now)
	return warning, nil
}

// List returns warnings most-recent-first. Acknowledged entries are hidden
// unless includeAcknowledged is set; acknowledging never deletes.
func (wl *WarningLog) List(includeAcknowledged bool) []BanWarning {
	if wl == nil {
		return nil
	}
	wl.mu.Lock()
	defer wl.mu.Unlock()
	if now, err := wl.clock.Now(); err == nil {
		wl.prune(now)
	}
	out := make([]BanWarning, 0, len(wl.entries))
	for i := len(wl.entries) - 1; i >= 0; i-- {
		entry := wl.entries[i]
		if entry.Acknowledged && !includeAcknowledged {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Acknowledge flips the acknowledged flag on a warning.
func (wl *WarningLog) Acknowledge(id string) error {
	if wl == nil {
		return errors.New("warning log is nil")
	}
	if id == "" {
		return ErrInvalidInput
	}
	wl.mu.Lock()
	defer wl.mu.Unlock()
	for i := range wl.entries {
		if wl.entries[i].ID == id {
			wl.entries[i].Acknowledged = true
			return nil
		}
	}
	return ErrNotFound
}

// Unacknowledged counts entries of any type that have not been acknowledged.
func (wl *WarningLog) Unacknowledged() []BanWarning {
	if wl == nil {
		return nil
	}
	return wl.List(false)
}

// LastOfType returns the newest entry of the given type, if any.
func (wl *WarningLog) LastOfType(kind WarningType) (BanWarning, bool) {
	if wl == nil {
		return BanWarning{}, false
	}
	wl.mu.Lock()
	defer wl.mu.Unlock()
	for i := len(wl.entries) - 1; i >= 0; i-- {
		if wl.entries[i].Type == kind {
			return wl.entries[i], true
		}
	}
	return BanWarning{}, false
}

// prune enforces both retention bounds, oldest dropped first. Callers hold
// wl.mu.
func (wl *WarningLog) prune(now time.Time) {
	horizon := now.Add(-wl.retention)
	cut := 0
	for cut < len(wl.entries) && wl.entries[cut].Timestamp.Before(horizon) {
		cut++
	}
	if over := len(wl.entries) - cut - wl.maxCount; over > 0 {
		cut += over
	}
	if cut > 0 {
		wl.entries = append([]BanWarning(nil), wl.entries[cut:]...)
	}
}
