// Package core provides the periodic risk evaluation loop body.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/observability"
)

// Factor warn thresholds: crossing one appends a BanWarning.
const (
	warnVolumeThreshold     = 80
	warnSpeedThreshold      = 60
	warnUniquenessThreshold = 60
	warnTimingThreshold     = 60
)

// DefaultRewarnCooldown suppresses duplicate warnings for a factor that
// stays elevated across consecutive evaluations.
const DefaultRewarnCooldown = 10 * time.Minute

// RiskMonitor gathers scorer inputs, appends warnings for factors that cross
// their thresholds, and is the only component allowed to trigger an
// automatic pause.
type RiskMonitor struct {
	mu       sync.Mutex
	scorer   *RiskScorer
	limiter  *RateLimiter
	history  *SendHistory
	warnings *WarningLog
	pause    *PauseGovernor
	queue    *OutboundQueue
	clock    Clock
	cooldown time.Duration
	logger   observability.Logger
	metrics  observability.Metrics
	lastWarn map[WarningType]time.Time
}

// NewRiskMonitor constructs a monitor over the governor state.
func NewRiskMonitor(scorer *RiskScorer, limiter *RateLimiter, history *SendHistory, warnings *WarningLog, pause *PauseGovernor, queue *OutboundQueue, clock Clock, cooldown time.Duration) (*RiskMonitor, error) {
	if scorer == nil || limiter == nil || history == nil || warnings == nil || pause == nil {
		return nil, errors.New("monitor dependencies are required")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if cooldown <= 0 {
		cooldown = DefaultRewarnCooldown
	}
	return &RiskMonitor{
		scorer:   scorer,
		limiter:  limiter,
		history:  history,
		warnings: warnings,
		pause:    pause,
		queue:    queue,
		clock:    clock,
		cooldown: cooldown,
		lastWarn: make(map[WarningType]time.Time),
	}, nil
}

// SetObservers configures optional logging and metrics.
func (m *RiskMonitor) SetObservers(logger observability.Logger, metrics observability.Metrics) {
	if m == nil {
		return
	}
	m.logger = logger
	m.metrics = metrics
}

// Evaluate recomputes the risk score from a read-only snapshot of governor
// state. A critical result auto-pauses outbound sending; lesser elevated
// factors append warnings subject to the re-warn cooldown.
func (m *RiskMonitor) Evaluate(ctx context.Context) (RiskScore, error) {
	if m == nil {
		return RiskScore{}, errors.New("risk monitor is nil")
	}
	now, err := m.clock.Now()
	if err != nil {
		return RiskScore{}, Wrap(CodeClockUnavailable, "clock unavailable", err)
	}
	usage, err := m.limiter.Usage(ctx)
	if err != nil {
		return RiskScore{}, err
	}
	times, hashes := m.history.Snapshot()
	depth := 0
	if m.queue != nil {
		depth = m.queue.Depth(ctx)
	}
	score := m.scorer.Score(ScoreInput{
		Usage:         usage,
		SendTimes:     times,
		ContentHashes: hashes,
		Warnings:      m.warnings.Unacknowledged(),
		QueueDepth:    depth,
		Now:           now,
	})

	m.emitWarnings(score.Factors, now)
	if m.metrics != nil {
		m.metrics.SetGauge("risk_overall", int64(score.Overall))
		m.metrics.SetGauge("queue_depth", int64(depth))
	}

	if score.Level == RiskCritical && !m.pause.IsPaused() {
		if err := m.pause.Pause(PauseAutoCriticalRisk); err == nil && m.logger != nil {
			m.logger.Warn("auto-paused on critical risk", map[string]any{
				"overall": score.Overall,
			})
		}
	}
	return score, nil
}

// emitWarnings appends one warning per factor that crossed its threshold,
// at most once per cooldown window per type.
func (m *RiskMonitor) emitWarnings(f RiskFactors, now time.Time) {
	type trigger struct {
		kind      WarningType
		value     int
		threshold int
		message   string
	}
	triggers := []trigger{
		{WarningVolumeSpike, f.MessageVolume, warnVolumeThreshold, "message volume is near the configured send quota"},
		{WarningRapidFire, f.MessageSpeed, warnSpeedThreshold, "messages are going out in rapid succession"},
		{WarningRepetitiveContent, f.ContentUniqueness, warnUniquenessThreshold, "recent message bodies are near-identical"},
		{WarningSuspiciousTiming, f.TimingPatterns, warnTimingThreshold, "send cadence is suspiciously regular"},
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range triggers {
		if tr.value < tr.threshold {
			continue
		}
		if last, ok := m.lastWarn[tr.kind]; ok && now.Sub(last) < m.cooldown {
			continue
		}
		warning, err := m.warnings.Append(BanWarning{
			Type:    tr.kind,
			Message: fmt.Sprintf("%s (factor %d)", tr.message, tr.value),
		})
		if err != nil {
			continue
		}
		m.lastWarn[tr.kind] = now
		if m.metrics != nil {
			m.metrics.IncWarning(string(tr.kind))
		}
		if m.logger != nil {
			m.logger.Warn("ban warning raised", map[string]any{
				"warning_id": warning.ID,
				"type":       string(tr.kind),
				"factor":     tr.value,
			})
		}
	}
}
