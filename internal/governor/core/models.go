// Package core defines the governor domain models.
package core

import (
	"context"
	"time"
)

// WindowKind distinguishes the two fixed quota windows.
type WindowKind string

const (
	WindowHour WindowKind = "hour"
	WindowDay  WindowKind = "day"
)

// UsageSnapshot reports current consumption against both quota windows.
type UsageSnapshot struct {
	HourlyCount int64     `json:"hourlyCount"`
	HourlyLimit int64     `json:"hourlyLimit"`
	DailyCount  int64     `json:"dailyCount"`
	DailyLimit  int64     `json:"dailyLimit"`
	HourStart   time.Time `json:"hourStart"`
	DayStart    time.Time `json:"dayStart"`
}

// WarningType classifies the signal that raised a ban warning.
type WarningType string

const (
	WarningVolumeSpike       WarningType = "volume_spike"
	WarningRapidFire         WarningType = "rapid_fire"
	WarningRepetitiveContent WarningType = "repetitive_content"
	WarningSuspiciousTiming  WarningType = "suspicious_timing"
	WarningPlatformSignal    WarningType = "platform_signal"
)

// BanWarning is an append-only risk trigger event. Immutable once created
// except for the acknowledged flag.
type BanWarning struct {
	ID           string      `json:"id"`
	Type         WarningType `json:"type"`
	Message      string      `json:"message"`
	Timestamp    time.Time   `json:"timestamp"`
	Acknowledged bool        `json:"acknowledged"`
}

// RiskLevel is the discrete band an overall risk score falls into.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskFactors carries the five per-signal scores, each 0-100.
type RiskFactors struct {
	MessageVolume     int `json:"messageVolume"`
	MessageSpeed      int `json:"messageSpeed"`
	ContentUniqueness int `json:"contentUniqueness"`
	TimingPatterns    int `json:"timingPatterns"`
	RecentWarnings    int `json:"recentWarnings"`
}

// RiskScore is a derived snapshot of platform-ban risk. It has no lifecycle
// of its own and is recomputed on demand.
type RiskScore struct {
	Overall         int         `json:"overall"`
	Level           RiskLevel   `json:"level"`
	Factors         RiskFactors `json:"factors"`
	Recommendations []string    `json:"recommendations"`
	EvaluatedAt     time.Time   `json:"evaluatedAt"`
}

// PauseReason records why outbound sending was paused.
type PauseReason string

const (
	PauseManual           PauseReason = "manual"
	PauseAutoCriticalRisk PauseReason = "auto_critical_risk"
)

// PauseState is the externally visible pause snapshot.
type PauseState struct {
	IsPaused bool        `json:"isPaused"`
	PausedAt time.Time   `json:"pausedAt,omitzero"`
	Reason   PauseReason `json:"reason,omitempty"`
}

// MessageStatus tracks a queued message through its lifecycle.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSending   MessageStatus = "sending"
	StatusFailed    MessageStatus = "failed"
	StatusDelivered MessageStatus = "delivered"
)

// QueuedMessage is an outbound message awaiting delivery.
type QueuedMessage struct {
	ID            string        `json:"id"`
	Destination   string        `json:"destination"`
	Content       string        `json:"content"`
	Channel       string        `json:"channel"`
	EnqueuedAt    time.Time     `json:"enqueuedAt"`
	Attempts      int           `json:"attempts"`
	LastError     string        `json:"lastError,omitempty"`
	Status        MessageStatus `json:"status"`
	NextAttemptAt time.Time     `json:"nextAttemptAt,omitzero"`
	Seq           uint64        `json:"seq"`
}

// SendRequest captures a direct send intent from a caller.
type SendRequest struct {
	Destination string
	Content     string
	Channel     string
}

// SendOutcome describes how the governor disposed of a send request.
type SendOutcome string

const (
	// OutcomeDelivered means the message went out on the first attempt.
	OutcomeDelivered SendOutcome = "delivered"
	// OutcomeQueued means admission was denied or the transport failed and
	// the message now sits in the outbound queue.
	OutcomeQueued SendOutcome = "queued"
)

// SendResult reports the disposition of a direct send.
type SendResult struct {
	MessageID string      `json:"messageId"`
	Outcome   SendOutcome `json:"outcome"`
	Reason    string      `json:"reason,omitempty"`
}

// SendFunc dispatches a message on its channel transport. Implementations
// are supplied by the messaging integration and must honor ctx cancellation.
type SendFunc func(ctx context.Context, msg *QueuedMessage) error

// DrainResult summarizes one queue drain pass.
type DrainResult struct {
	Delivered    int `json:"delivered"`
	Failed       int `json:"failed"`
	StillPending int `json:"stillPending"`
}
