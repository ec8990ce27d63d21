// Package core provides the outbound-messaging safety governor facade.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/observability"
)

// Governor is the single admission pipeline for outbound messages. One
// instance per process, explicitly constructed and passed by handle; the
// dashboards poll its read methods, operator tooling calls its mutations,
// and the app's periodic tasks run risk evaluation and queue drains.
type Governor struct {
	limiter  *RateLimiter
	warnings *WarningLog
	pause    *PauseGovernor
	queue    *OutboundQueue
	history  *SendHistory
	monitor  *RiskMonitor
	sendFn   SendFunc
	clock    Clock
	policy   QueuePolicy
	logger   observability.Logger
	metrics  observability.Metrics
}

// GovernorDeps carries the constructed components a Governor wires together.
type GovernorDeps struct {
	Limiter  *RateLimiter
	Warnings *WarningLog
	Pause    *PauseGovernor
	Queue    *OutboundQueue
	History  *SendHistory
	Monitor  *RiskMonitor
	SendFn   SendFunc
	Clock    Clock
	Policy   QueuePolicy
	Logger   observability.Logger
	Metrics  observability.Metrics
}

// NewGovernor constructs the governor facade.
func NewGovernor(deps GovernorDeps) (*Governor, error) {
	if deps.Limiter == nil || deps.Warnings == nil || deps.Pause == nil || deps.Queue == nil || deps.History == nil || deps.Monitor == nil {
		return nil, errors.New("governor dependencies are required")
	}
	if deps.SendFn == nil {
		return nil, errors.New("send function is required")
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	return &Governor{
		limiter:  deps.Limiter,
		warnings: deps.Warnings,
		pause:    deps.Pause,
		queue:    deps.Queue,
		history:  deps.History,
		monitor:  deps.Monitor,
		sendFn:   deps.SendFn,
		clock:    deps.Clock,
		policy:   NormalizeQueuePolicy(deps.Policy),
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}, nil
}

// Send is the direct entry point for an outbound message. Admission
// rejections are expected and handled locally: the message is enqueued and
// the result reports it as queued rather than failing the caller's action.
// A transport failure is surfaced to the caller immediately, and the message
// is queued so the drain loop retries it.
func (g *Governor) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if g == nil {
		return nil, errors.New("governor is nil")
	}
	if req.Destination == "" || req.Content == "" {
		return nil, ErrInvalidInput
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	defer func() {
		if g.metrics != nil {
			g.metrics.ObserveLatency("send", time.Since(start))
		}
	}()

	if g.pause.IsPaused() {
		return g.deferSend(ctx, req, string(CodePaused), "paused")
	}
	allowed, err := g.limiter.Reserve(ctx)
	if err != nil {
		if CodeOf(err) == CodeClockUnavailable {
			// Fail closed: without a clock the quota cannot be metered.
			return g.deferSend(ctx, req, string(CodeClockUnavailable), "clock_unavailable")
		}
		return nil, err
	}
	if !allowed {
		return g.deferSend(ctx, req, string(CodeQuotaExceeded), "quota")
	}

	now, err := g.clock.Now()
	if err != nil {
		return g.deferSend(ctx, req, string(CodeClockUnavailable), "clock_unavailable")
	}
	msg := QueuedMessage{
		Destination: req.Destination,
		Content:     req.Content,
		Channel:     req.Channel,
		EnqueuedAt:  now,
	}
	sendCtx, cancel := context.WithTimeout(ctx, g.policy.SendTimeout)
	err = g.sendFn(sendCtx, &msg)
	cancel()
	if err != nil {
		// The direct caller sees the transport failure; the message still
		// enters the queue so connectivity recovery retries it.
		result, enqueueErr := g.deferSend(ctx, req, string(CodeTransportFailure), "transport_failure")
		if enqueueErr != nil {
			return nil, enqueueErr
		}
		return result, Wrap(CodeTransportFailure, "transport send failed", err)
	}

	g.history.Record(now, req.Content)
	if g.metrics != nil {
		g.metrics.IncSend("delivered", req.Channel)
	}
	if g.logger != nil {
		g.logger.Info("message delivered", map[string]any{
			"channel":     req.Channel,
			"destination": req.Destination,
		})
	}
	return &SendResult{Outcome: OutcomeDelivered}, nil
}

// deferSend enqueues a message the admission path rejected.
func (g *Governor) deferSend(ctx context.Context, req SendRequest, code, reason string) (*SendResult, error) {
	id, err := g.queue.Enqueue(ctx, req)
	if err != nil {
		return nil, err
	}
	if g.metrics != nil {
		g.metrics.IncAdmissionDenied(reason)
		g.metrics.IncSend("queued", req.Channel)
	}
	return &SendResult{MessageID: id, Outcome: OutcomeQueued, Reason: code}, nil
}

// Drain runs one queue drain pass through the admission pipeline.
func (g *Governor) Drain(ctx context.Context) (DrainResult, error) {
	if g == nil {
		return DrainResult{}, errors.New("governor is nil")
	}
	result, err := g.queue.Drain(ctx, g.sendAndRecord)
	if g.metrics != nil {
		g.metrics.SetGauge("queue_depth", int64(result.StillPending))
	}
	return result, err
}

// sendAndRecord dispatches a queued message and, on success, feeds the send
// history the risk factors read. Quota accounting happens in the queue's
// admission step.
func (g *Governor) sendAndRecord(ctx context.Context, msg *QueuedMessage) error {
	if err := g.sendFn(ctx, msg); err != nil {
		return err
	}
	if now, err := g.clock.Now(); err == nil {
		g.history.Record(now, msg.Content)
	}
	return nil
}

// Usage returns the current quota snapshot.
func (g *Governor) Usage(ctx context.Context) (UsageSnapshot, error) {
	if g == nil {
		return UsageSnapshot{}, errors.New("governor is nil")
	}
	return g.limiter.Usage(ctx)
}

// Score recomputes the risk snapshot. A critical result auto-pauses sending
// as a documented side effect; the computation itself is read-only.
func (g *Governor) Score(ctx context.Context) (RiskScore, error) {
	if g == nil {
		return RiskScore{}, errors.New("governor is nil")
	}
	return g.monitor.Evaluate(ctx)
}

// Status returns the pause snapshot.
func (g *Governor) Status() PauseState {
	if g == nil {
		return PauseState{}
	}
	return g.pause.Status()
}

// Pause gates sends manually.
func (g *Governor) Pause() error {
	if g == nil {
		return errors.New("governor is nil")
	}
	return g.pause.Pause(PauseManual)
}

// Resume reopens the send gate.
func (g *Governor) Resume() error {
	if g == nil {
		return errors.New("governor is nil")
	}
	return g.pause.Resume()
}

// Warnings lists ban warnings most-recent-first.
func (g *Governor) Warnings(includeAcknowledged bool) []BanWarning {
	if g == nil {
		return nil
	}
	return g.warnings.List(includeAcknowledged)
}

// Acknowledge marks a warning as handled by an operator.
func (g *Governor) Acknowledge(id string) error {
	if g == nil {
		return errors.New("governor is nil")
	}
	return g.warnings.Acknowledge(id)
}

// Enqueue places a message directly into the outbound queue.
func (g *Governor) Enqueue(ctx context.Context, req SendRequest) (string, error) {
	if g == nil {
		return "", errors.New("governor is nil")
	}
	return g.queue.Enqueue(ctx, req)
}

// QueuedMessages returns the pending backlog oldest first.
func (g *Governor) QueuedMessages(ctx context.Context) ([]QueuedMessage, error) {
	if g == nil {
		return nil, errors.New("governor is nil")
	}
	return g.queue.List(ctx)
}

// DeadMessages returns terminally failed messages for inspection.
func (g *Governor) DeadMessages(ctx context.Context) ([]QueuedMessage, error) {
	if g == nil {
		return nil, errors.New("governor is nil")
	}
	return g.queue.Dead(ctx)
}

// UpdateLimits changes quota limits at runtime without resetting counts.
func (g *Governor) UpdateLimits(hourlyLimit, dailyLimit int64) error {
	if g == nil {
		return errors.New("governor is nil")
	}
	return g.limiter.UpdateLimits(hourlyLimit, dailyLimit)
}
