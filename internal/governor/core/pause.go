// Package core provides the pause state machine.
package core

import (
	"errors"
	"sync"
	"time"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/observability"
)

// PauseGovernor gates all outbound sends. Two states: active and paused.
// A pause never self-resumes; resuming is always an explicit operator call,
// including after a critical-risk auto-pause.
type PauseGovernor struct {
	mu     sync.Mutex
	paused bool
	at     time.Time
	reason PauseReason
	clock  Clock
	logger observability.Logger
}

// NewPauseGovernor constructs a pause governor in the active state.
func NewPauseGovernor(clock Clock, logger observability.Logger) *PauseGovernor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PauseGovernor{clock: clock, logger: logger}
}

// Pause transitions to the paused state. Pausing while already paused is
// idempotent except that an automatic reason supersedes a manual one for
// reporting; it never re-pauses.
func (pg *PauseGovernor) Pause(reason PauseReason) error {
	if pg == nil {
		return errors.New("pause governor is nil")
	}
	if reason != PauseManual && reason != PauseAutoCriticalRisk {
		return ErrInvalidInput
	}
	pg.mu.Lock()
	defer pg.mu.Unlock()
	if pg.paused {
		if reason == PauseAutoCriticalRisk && pg.reason == PauseManual {
			pg.reason = reason
		}
		return nil
	}
	now, err := pg.clock.Now()
	if err != nil {
		now = time.Time{}
	}
	pg.paused = true
	pg.at = now
	pg.reason = reason
	if pg.logger != nil {
		pg.logger.Info("outbound sending paused", map[string]any{
			"reason": string(reason),
		})
	}
	return nil
}

// Resume transitions back to active. Resuming while active is a no-op
// returning success.
func (pg *PauseGovernor) Resume() error {
	if pg == nil {
		return errors.New("pause governor is nil")
	}
	pg.mu.Lock()
	defer pg.mu.Unlock()
	if !pg.paused {
		return nil
	}
	prev := pg.reason
	pg.paused = false
	pg.at = time.Time{}
	pg.reason = ""
	if pg.logger != nil {
		pg.logger.Info("outbound sending resumed", map[string]any{
			"previous_reason": string(prev),
		})
	}
	return nil
}

// IsPaused reports whether sends are currently gated.
func (pg *PauseGovernor) IsPaused() bool {
	if pg == nil {
		return false
	}
	pg.mu.Lock()
	defer pg.mu.Unlock()
	return pg.paused
}

// Status returns the externally visible pause snapshot.
func (pg *PauseGovernor) Status() PauseState {
	if pg == nil {
		return PauseState{}
	}
	pg.mu.Lock()
	defer pg.mu.Unlock()
	return PauseState{
		IsPaused: pg.paused,
		PausedAt: pg.at,
		Reason:   pg.reason,
	}
}
