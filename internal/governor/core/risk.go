// Package core provides the composite platform-ban risk scorer.
package core

import (
	"math"
	"sort"
	"time"
)

// RiskWeights combines the five factors into the overall score. Weights are
// normalized before use; recentWarnings defaults highest because it encodes
// prior evidence of real platform pushback.
type RiskWeights struct {
	MessageVolume     float64
	MessageSpeed      float64
	ContentUniqueness float64
	TimingPatterns    float64
	RecentWarnings    float64
}

// DefaultRiskWeights returns the default factor weighting.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		MessageVolume:     0.20,
		MessageSpeed:      0.20,
		ContentUniqueness: 0.15,
		TimingPatterns:    0.15,
		RecentWarnings:    0.30,
	}
}

// RiskThresholds holds the level cut points. They must be monotonic; every
// overall value maps to exactly one level.
type RiskThresholds struct {
	Medium   int
	High     int
	Critical int
}

// DefaultRiskThresholds returns the default level boundaries.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{Medium: 40, High: 65, Critical: 85}
}

// Valid reports whether the thresholds are monotonic and in range.
func (t RiskThresholds) Valid() bool {
	return t.Medium > 0 && t.Medium < t.High && t.High < t.Critical && t.Critical <= 100
}

// ScoreInput is everything the scorer reads. The scorer holds no state of
// its own, so identical inputs always produce identical scores.
type ScoreInput struct {
	Usage UsageSnapshot
	// SendTimes are the most recent dispatch instants, oldest first.
	SendTimes []time.Time
	// ContentHashes are digests of the most recent message bodies.
	ContentHashes []string
	// Warnings are the unacknowledged warnings in the recent window.
	Warnings []BanWarning
	// QueueDepth is the outbound backlog size.
	QueueDepth int
	Now        time.Time
}

// RiskScorer turns usage, history, and warnings into a RiskScore.
type RiskScorer struct {
	weights    RiskWeights
	thresholds RiskThresholds
}

// NewRiskScorer constructs a scorer. Zero weights or invalid thresholds fall
// back to the defaults.
func NewRiskScorer(weights RiskWeights, thresholds RiskThresholds) *RiskScorer {
	if weights == (RiskWeights{}) {
		weights = DefaultRiskWeights()
	}
	if !thresholds.Valid() {
		thresholds = DefaultRiskThresholds()
	}
	return &RiskScorer{weights: weights, thresholds: thresholds}
}

// Score computes a risk snapshot from the inputs. Pure: no hidden state, no
// side effects.
func (rs *RiskScorer) Score(in ScoreInput) RiskScore {
	if rs == nil {
		return RiskScore{Level: RiskLow}
	}
	factors := RiskFactors{
		MessageVolume:     volumeFactor(in.Usage),
		MessageSpeed:      speedFactor(in.SendTimes),
		ContentUniqueness: uniquenessFactor(in.ContentHashes),
		TimingPatterns:    timingFactor(in.SendTimes),
		RecentWarnings:    warningsFactor(in.Warnings),
	}
	overall := rs.combine(factors)
	return RiskScore{
		Overall:         overall,
		Level:           rs.Level(overall),
		Factors:         factors,
		Recommendations: recommend(factors, in.QueueDepth),
		EvaluatedAt:     in.Now,
	}
}

// Level maps an overall score to its discrete band.
func (rs *RiskScorer) Level(overall int) RiskLevel {
	th := DefaultRiskThresholds()
	if rs != nil {
		th = rs.thresholds
	}
	switch {
	case overall >= th.Critical:
		return RiskCritical
	case overall >= th.High:
		return RiskHigh
	case overall >= th.Medium:
		return RiskMedium
	default:
		return RiskLow
	}
}

func (rs *RiskScorer) combine(f RiskFactors) int {
	w := rs.weights
	total := w.MessageVolume + w.MessageSpeed + w.ContentUniqueness + w.TimingPatterns + w.RecentWarnings
	if total <= 0 {
		return 0
	}
	sum := w.MessageVolume*float64(f.MessageVolume) +
		w.MessageSpeed*float64(f.MessageSpeed) +
		w.ContentUniqueness*float64(f.ContentUniqueness) +
		w.TimingPatterns*float64(f.TimingPatterns) +
		w.RecentWarnings*float64(f.RecentWarnings)
	return clampScore(int(math.Round(sum / total)))
}

// volumeFactor scales the worse of the two usage ratios to 0-100.
func volumeFactor(usage UsageSnapshot) int {
	ratio := 0.0
	if usage.HourlyLimit > 0 {
		ratio = float64(usage.HourlyCount) / float64(usage.HourlyLimit)
	}
	if usage.DailyLimit > 0 {
		if daily := float64(usage.DailyCount) / float64(usage.DailyLimit); daily > ratio {
			ratio = daily
		}
	}
	return clampScore(int(math.Round(ratio * 100)))
}

// speedFactor penalizes short inter-send intervals. Tighter clustering of
// the recent sends raises the score.
func speedFactor(times []time.Time) int {
	gaps := interSendGaps(times)
	if len(gaps) == 0 {
		return 0
	}
	avg := meanSeconds(gaps)
	switch {
	case avg < 2:
		return 100
	case avg < 10:
		return 60
	case avg < 60:
		return 20
	default:
		return 0
	}
}

// uniquenessFactor penalizes repeated message bodies among the recent sends.
func uniquenessFactor(hashes []string) int {
	if len(hashes) < 2 {
		return 0
	}
	seen := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		seen[h] = struct{}{}
	}
	dup := 1 - float64(len(seen))/float64(len(hashes))
	return clampScore(int(math.Round(dup * 100)))
}

// timingFactor penalizes suspiciously regular cadences. A low coefficient of
// variation across the recent gaps looks automated.
func timingFactor(times []time.Time) int {
	gaps := interSendGaps(times)
	if len(gaps) < 3 {
		return 0
	}
	mean := meanSeconds(gaps)
	if mean <= 0 {
		return 100
	}
	variance := 0.0
	for _, g := range gaps {
		d := g.Seconds() - mean
		variance += d * d
	}
	variance /= float64(len(gaps))
	cv := math.Sqrt(variance) / mean
	switch {
	case cv < 0.1:
		return 90
	case cv < 0.25:
		return 60
	case cv < 0.5:
		return 25
	default:
		return 0
	}
}

// warningsFactor weighs unacknowledged warnings; platform signals count
// double since they are direct evidence of pushback.
func warningsFactor(warnings []BanWarning) int {
	score := 0
	for _, w := range warnings {
		if w.Acknowledged {
			continue
		}
		if w.Type == WarningPlatformSignal {
			score += 40
		} else {
			score += 20
		}
	}
	return clampScore(score)
}

type recommendation struct {
	severity int
	text     string
}

// recommend matches simple rules against elevated factors, highest first.
func recommend(f RiskFactors, queueDepth int) []string {
	var matched []recommendation
	if f.MessageSpeed >= 60 {
		matched = append(matched, recommendation{f.MessageSpeed, "Reduce send frequency and leave longer gaps between messages."})
	}
	if f.MessageVolume >= 60 {
		matched = append(matched, recommendation{f.MessageVolume, "Slow down outreach; usage is close to the configured send quota."})
	}
	if f.ContentUniqueness >= 60 {
		matched = append(matched, recommendation{f.ContentUniqueness, "Vary message content; recent messages are near-identical."})
	}
	if f.TimingPatterns >= 60 {
		matched = append(matched, recommendation{f.TimingPatterns, "Randomize send timing; the current cadence looks automated."})
	}
	if f.RecentWarnings >= 40 {
		matched = append(matched, recommendation{f.RecentWarnings, "Review unacknowledged warnings before continuing outreach."})
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].severity > matched[j].severity
	})
	out := make([]string, 0, len(matched)+1)
	for _, rec := range matched {
		out = append(out, rec.text)
	}
	if queueDepth > 0 && f.MessageVolume >= 60 {
		out = append(out, "Outbound backlog is growing while quotas are tight; expect delayed deliveries.")
	}
	return out
}

func interSendGaps(times []time.Time) []time.Duration {
	if len(times) < 2 {
		return nil
	}
	gaps := make([]time.Duration, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		if gap < 0 {
			gap = 0
		}
		gaps = append(gaps, gap)
	}
	return gaps
}

func meanSeconds(gaps []time.Duration) float64 {
	if len(gaps) == 0 {
		return 0
	}
	total := 0.0
	for _, g := range gaps {
		total += g.Seconds()
	}
	return total / float64(len(gaps))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
