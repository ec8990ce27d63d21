// Package core defines the service interfaces transports depend on.
package core

import "context"

// GovernorService is the surface exposed to transports and operator tooling.
// Read methods are side-effect-free snapshots safe for arbitrary polling;
// Score additionally carries the documented critical-risk auto-pause.
type GovernorService interface {
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
	Enqueue(ctx context.Context, req SendRequest) (string, error)
	Usage(ctx context.Context) (UsageSnapshot, error)
	Score(ctx context.Context) (RiskScore, error)
	Status() PauseState
	Pause() error
	Resume() error
	Warnings(includeAcknowledged bool) []BanWarning
	Acknowledge(id string) error
	QueuedMessages(ctx context.Context) ([]QueuedMessage, error)
	DeadMessages(ctx context.Context) ([]QueuedMessage, error)
	UpdateLimits(hourlyLimit, dailyLimit int64) error
}

// Transport serves the governor API over some protocol.
type Transport interface {
	Start() error
	Shutdown(ctx context.Context) error
}
