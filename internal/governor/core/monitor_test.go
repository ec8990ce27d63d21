package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/store/inmemory"
)

type monitorFixture struct {
	monitor  *core.RiskMonitor
	limiter  *core.RateLimiter
	history  *core.SendHistory
	warnings *core.WarningLog
	pause    *core.PauseGovernor
	clock    *testClock
}

func newMonitorFixture(t *testing.T, hourly, daily int64) *monitorFixture {
	t.Helper()
	clock := newTestClock(testBase)
	limiter, err := core.NewRateLimiter(inmemory.NewCounterStore(), clock, hourly, daily)
	if err != nil {
		t.Fatalf("failed to create rate limiter: %v", err)
	}
	history := core.NewSendHistory(10)
	warnings := core.NewWarningLog(0, 0, clock)
	pause := core.NewPauseGovernor(clock, nil)
	queue, err := core.NewOutboundQueue(inmemory.NewQueueStore(), limiter, pause, clock, core.QueuePolicy{})
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	scorer := core.NewRiskScorer(core.DefaultRiskWeights(), core.DefaultRiskThresholds())
	monitor, err := core.NewRiskMonitor(scorer, limiter, history, warnings, pause, queue, clock, 10*time.Minute)
	if err != nil {
		t.Fatalf("failed to create monitor: %v", err)
	}
	return &monitorFixture{
		monitor:  monitor,
		limiter:  limiter,
		history:  history,
		warnings: warnings,
		pause:    pause,
		clock:    clock,
	}
}

func TestRiskMonitor_CalmStateScoresLow(t *testing.T) {
	t.Parallel()

	fixture := newMonitorFixture(t, 100, 1000)
	score, err := fixture.monitor.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if score.Level != core.RiskLow {
		t.Fatalf("expected low risk for idle state, got %s", score.Level)
	}
	if fixture.pause.IsPaused() {
		t.Fatalf("low risk must not pause sending")
	}
	if got := len(fixture.warnings.List(true)); got != 0 {
		t.Fatalf("expected no warnings, got %d", got)
	}
}

func TestRiskMonitor_CriticalRiskAutoPauses(t *testing.T) {
	t.Parallel()

	fixture := newMonitorFixture(t, 5, 1000)
	ctx := context.Background()

	// Burn the whole hourly quota with rapid identical sends and stack
	// unacknowledged platform signals on top.
	for i := 0; i < 5; i++ {
		if err := fixture.limiter.Record(ctx); err != nil {
			t.Fatalf("record failed: %v", err)
		}
		fixture.history.Record(testBase.Add(time.Duration(i)*time.Second), "same pitch every time")
	}
	for i := 0; i < 3; i++ {
		if _, err := fixture.warnings.Append(core.BanWarning{
			Type:    core.WarningPlatformSignal,
			Message: "account flagged",
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	score, err := fixture.monitor.Evaluate(ctx)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if score.Level != core.RiskCritical {
		t.Fatalf("expected critical risk, got %s (overall %d)", score.Level, score.Overall)
	}
	state := fixture.pause.Status()
	if !state.IsPaused {
		t.Fatalf("expected auto-pause on critical risk")
	}
	if state.Reason != core.PauseAutoCriticalRisk {
		t.Fatalf("expected auto pause reason, got %s", state.Reason)
	}

	// The pause never self-resumes; a later calm evaluation leaves it alone.
	fixture.clock.Advance(2 * time.Hour)
	if _, err := fixture.monitor.Evaluate(ctx); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !fixture.pause.IsPaused() {
		t.Fatalf("auto-pause must persist until an operator resumes")
	}
}

func TestRiskMonitor_ElevatedFactorsAppendWarnings(t *testing.T) {
	t.Parallel()

	fixture := newMonitorFixture(t, 100, 1000)
	ctx := context.Background()

	// Rapid identical sends trip the speed, uniqueness, and timing factors.
	for i := 0; i < 6; i++ {
		fixture.history.Record(testBase.Add(time.Duration(i)*time.Second), "same pitch every time")
	}

	if _, err := fixture.monitor.Evaluate(ctx); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	first := fixture.warnings.List(true)
	if len(first) == 0 {
		t.Fatalf("expected warnings for elevated factors")
	}
	types := make(map[core.WarningType]bool)
	for _, w := range first {
		types[w.Type] = true
	}
	if !types[core.WarningRapidFire] || !types[core.WarningRepetitiveContent] || !types[core.WarningSuspiciousTiming] {
		t.Fatalf("expected rapid fire, repetitive content, and timing warnings, got %v", types)
	}

	// A second evaluation inside the cooldown window emits nothing new.
	fixture.clock.Advance(time.Minute)
	if _, err := fixture.monitor.Evaluate(ctx); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if got := len(fixture.warnings.List(true)); got != len(first) {
		t.Fatalf("expected cooldown to suppress duplicates, got %d warnings", got)
	}

	// Past the cooldown, a still-elevated factor warns again.
	fixture.clock.Advance(15 * time.Minute)
	if _, err := fixture.monitor.Evaluate(ctx); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if got := len(fixture.warnings.List(true)); got <= len(first) {
		t.Fatalf("expected fresh warnings after cooldown, got %d", got)
	}
}

func TestRiskMonitor_FailsClosedOnClockError(t *testing.T) {
	t.Parallel()

	fixture := newMonitorFixture(t, 100, 1000)
	fixture.clock.SetFail(true)
	if _, err := fixture.monitor.Evaluate(context.Background()); core.CodeOf(err) != core.CodeClockUnavailable {
		t.Fatalf("expected clock unavailable error, got %v", err)
	}
}
