package core_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

func sendTimes(start time.Time, gap time.Duration, count int) []time.Time {
	times := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		times = append(times, start.Add(time.Duration(i)*gap))
	}
	return times
}

func TestRiskScorer_Deterministic(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.DefaultRiskWeights(), core.DefaultRiskThresholds())
	input := core.ScoreInput{
		Usage:         core.UsageSnapshot{HourlyCount: 40, HourlyLimit: 100, DailyCount: 200, DailyLimit: 1000},
		SendTimes:     sendTimes(testBase, 5*time.Second, 6),
		ContentHashes: []string{"a", "b", "a", "c"},
		Warnings:      []core.BanWarning{{Type: core.WarningRapidFire}},
		QueueDepth:    3,
		Now:           testBase,
	}

	first := scorer.Score(input)
	second := scorer.Score(input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different scores: %+v vs %+v", first, second)
	}
}

func TestRiskScorer_VolumeFactor(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.RiskWeights{}, core.RiskThresholds{})
	tests := []struct {
		name  string
		usage core.UsageSnapshot
		want  int
	}{
		{"empty", core.UsageSnapshot{HourlyLimit: 100, DailyLimit: 1000}, 0},
		{"half hourly", core.UsageSnapshot{HourlyCount: 50, HourlyLimit: 100, DailyCount: 50, DailyLimit: 1000}, 50},
		{"daily dominates", core.UsageSnapshot{HourlyCount: 50, HourlyLimit: 100, DailyCount: 800, DailyLimit: 1000}, 80},
		{"at limit", core.UsageSnapshot{HourlyCount: 100, HourlyLimit: 100, DailyCount: 100, DailyLimit: 1000}, 100},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			score := scorer.Score(core.ScoreInput{Usage: tc.usage, Now: testBase})
			if score.Factors.MessageVolume != tc.want {
				t.Fatalf("expected volume factor %d, got %d", tc.want, score.Factors.MessageVolume)
			}
		})
	}
}

func TestRiskScorer_SpeedFactor(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.RiskWeights{}, core.RiskThresholds{})
	tests := []struct {
		name string
		gap  time.Duration
		want int
	}{
		{"rapid fire", time.Second, 100},
		{"fast", 5 * time.Second, 60},
		{"moderate", 30 * time.Second, 20},
		{"relaxed", 2 * time.Minute, 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			score := scorer.Score(core.ScoreInput{SendTimes: sendTimes(testBase, tc.gap, 5), Now: testBase})
			if score.Factors.MessageSpeed != tc.want {
				t.Fatalf("expected speed factor %d, got %d", tc.want, score.Factors.MessageSpeed)
			}
		})
	}

	// A single send has no gaps to judge.
	score := scorer.Score(core.ScoreInput{SendTimes: sendTimes(testBase, time.Second, 1), Now: testBase})
	if score.Factors.MessageSpeed != 0 {
		t.Fatalf("expected zero speed factor for a single send, got %d", score.Factors.MessageSpeed)
	}
}

func TestRiskScorer_UniquenessFactor(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.RiskWeights{}, core.RiskThresholds{})
	tests := []struct {
		name   string
		hashes []string
		want   int
	}{
		{"all unique", []string{"a", "b", "c", "d"}, 0},
		{"half duplicated", []string{"a", "a", "b", "b"}, 50},
		{"all identical", []string{"a", "a", "a", "a"}, 75},
		{"too few to judge", []string{"a"}, 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			score := scorer.Score(core.ScoreInput{ContentHashes: tc.hashes, Now: testBase})
			if score.Factors.ContentUniqueness != tc.want {
				t.Fatalf("expected uniqueness factor %d, got %d", tc.want, score.Factors.ContentUniqueness)
			}
		})
	}
}

func TestRiskScorer_TimingFactor(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.RiskWeights{}, core.RiskThresholds{})

	// Perfectly regular cadence looks automated.
	regular := scorer.Score(core.ScoreInput{SendTimes: sendTimes(testBase, 30*time.Second, 5), Now: testBase})
	if regular.Factors.TimingPatterns != 90 {
		t.Fatalf("expected timing factor 90 for regular cadence, got %d", regular.Factors.TimingPatterns)
	}

	// Highly irregular gaps look human.
	irregular := scorer.Score(core.ScoreInput{
		SendTimes: []time.Time{
			testBase,
			testBase.Add(5 * time.Second),
			testBase.Add(55 * time.Second),
			testBase.Add(255 * time.Second),
		},
		Now: testBase,
	})
	if irregular.Factors.TimingPatterns != 0 {
		t.Fatalf("expected timing factor 0 for irregular cadence, got %d", irregular.Factors.TimingPatterns)
	}

	// Fewer than three gaps is not enough signal.
	sparse := scorer.Score(core.ScoreInput{SendTimes: sendTimes(testBase, 30*time.Second, 3), Now: testBase})
	if sparse.Factors.TimingPatterns != 0 {
		t.Fatalf("expected timing factor 0 for sparse history, got %d", sparse.Factors.TimingPatterns)
	}
}

func TestRiskScorer_WarningsFactor(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.RiskWeights{}, core.RiskThresholds{})
	tests := []struct {
		name     string
		warnings []core.BanWarning
		want     int
	}{
		{"none", nil, 0},
		{"one ordinary", []core.BanWarning{{Type: core.WarningRapidFire}}, 20},
		{"platform signal counts double", []core.BanWarning{{Type: core.WarningPlatformSignal}}, 40},
		{"capped", []core.BanWarning{
			{Type: core.WarningPlatformSignal},
			{Type: core.WarningPlatformSignal},
			{Type: core.WarningPlatformSignal},
		}, 100},
		{"acknowledged ignored", []core.BanWarning{{Type: core.WarningRapidFire, Acknowledged: true}}, 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			score := scorer.Score(core.ScoreInput{Warnings: tc.warnings, Now: testBase})
			if score.Factors.RecentWarnings != tc.want {
				t.Fatalf("expected warnings factor %d, got %d", tc.want, score.Factors.RecentWarnings)
			}
		})
	}
}

func TestRiskScorer_LevelBands(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.DefaultRiskWeights(), core.DefaultRiskThresholds())
	tests := []struct {
		overall int
		want    core.RiskLevel
	}{
		{0, core.RiskLow},
		{39, core.RiskLow},
		{40, core.RiskMedium},
		{64, core.RiskMedium},
		{65, core.RiskHigh},
		{84, core.RiskHigh},
		{85, core.RiskCritical},
		{100, core.RiskCritical},
	}
	for _, tc := range tests {
		if got := scorer.Level(tc.overall); got != tc.want {
			t.Fatalf("expected level %s for overall %d, got %s", tc.want, tc.overall, got)
		}
	}
}

func TestRiskScorer_RecommendationsOrderedBySeverity(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.DefaultRiskWeights(), core.DefaultRiskThresholds())
	// One-second gaps: speed 100, timing 90, nothing else elevated.
	score := scorer.Score(core.ScoreInput{
		SendTimes:     sendTimes(testBase, time.Second, 5),
		ContentHashes: []string{"a", "b", "c", "d", "e"},
		Now:           testBase,
	})
	if len(score.Recommendations) != 2 {
		t.Fatalf("expected two recommendations, got %d: %v", len(score.Recommendations), score.Recommendations)
	}
	if score.Recommendations[0] != "Reduce send frequency and leave longer gaps between messages." {
		t.Fatalf("expected speed recommendation first, got %q", score.Recommendations[0])
	}

	calm := scorer.Score(core.ScoreInput{Now: testBase})
	if len(calm.Recommendations) != 0 {
		t.Fatalf("expected no recommendations for calm input, got %v", calm.Recommendations)
	}
}

func TestRiskScorer_InvalidConfigFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	scorer := core.NewRiskScorer(core.RiskWeights{}, core.RiskThresholds{Medium: 90, High: 50, Critical: 10})
	if got := scorer.Level(85); got != core.RiskCritical {
		t.Fatalf("expected default thresholds to apply, got %s", got)
	}
}
