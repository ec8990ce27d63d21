// Package core provides the durable outbound message queue.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/observability"
)

// QueueStore persists queued messages. The pending set is the unit of
// recovery across restarts; implementations must preserve enqueue order.
type QueueStore interface {
	// Append stores a new message and assigns its sequence number.
	Append(ctx context.Context, msg QueuedMessage) (QueuedMessage, error)
	// Update rewrites a pending message in place.
	Update(ctx context.Context, msg QueuedMessage) error
	// Remove deletes a delivered message from the pending set.
	Remove(ctx context.Context, id string) error
	// MarkDead moves a message from the pending set to the dead set.
	MarkDead(ctx context.Context, msg QueuedMessage) error
	// Pending returns pending messages oldest first.
	Pending(ctx context.Context) ([]QueuedMessage, error)
	// Dead returns terminally failed messages oldest first.
	Dead(ctx context.Context) ([]QueuedMessage, error)
}

// QueuePolicy tunes retry and pacing behavior.
type QueuePolicy struct {
	// MaxAttempts is the retry ceiling; once exceeded a message moves to the
	// dead set.
	MaxAttempts int
	// BackoffBase seeds the exponential retry delay.
	BackoffBase time.Duration
	// BackoffMax caps the retry delay.
	BackoffMax time.Duration
	// SendTimeout bounds each sendFn call so a hung transport cannot stall
	// the drain loop.
	SendTimeout time.Duration
	// DrainRate limits send attempts per second during a drain pass;
	// zero means unpaced.
	DrainRate float64
}

// NormalizeQueuePolicy fills zero fields with defaults.
func NormalizeQueuePolicy(p QueuePolicy) QueuePolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = 2 * time.Second
	}
	if p.BackoffMax <= 0 {
		p.BackoffMax = 5 * time.Minute
	}
	if p.SendTimeout <= 0 {
		p.SendTimeout = 30 * time.Second
	}
	return p
}

// OutboundQueue holds messages that could not be sent immediately and drains
// them through the same admission pipeline as direct sends.
type OutboundQueue struct {
	store   QueueStore
	limiter *RateLimiter
	pause   *PauseGovernor
	clock   Clock
	policy  QueuePolicy
	pacer   *rate.Limiter
	logger  observability.Logger
	metrics observability.Metrics
}

// NewOutboundQueue constructs a queue over a store and the admission gates.
func NewOutboundQueue(store QueueStore, limiter *RateLimiter, pause *PauseGovernor, clock Clock, policy QueuePolicy) (*OutboundQueue, error) {
	if store == nil {
		return nil, errors.New("queue store is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if pause == nil {
		return nil, errors.New("pause governor is required")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	policy = NormalizeQueuePolicy(policy)
	pacerLimit := rate.Inf
	if policy.DrainRate > 0 {
		pacerLimit = rate.Limit(policy.DrainRate)
	}
	return &OutboundQueue{
		store:   store,
		limiter: limiter,
		pause:   pause,
		clock:   clock,
		policy:  policy,
		pacer:   rate.NewLimiter(pacerLimit, 1),
	}, nil
}

// SetObservers configures optional logging and metrics.
func (q *OutboundQueue) SetObservers(logger observability.Logger, metrics observability.Metrics) {
	if q == nil {
		return
	}
	q.logger = logger
	q.metrics = metrics
}

// Enqueue stores a message for later delivery and returns its ID.
func (q *OutboundQueue) Enqueue(ctx context.Context, req SendRequest) (string, error) {
	if q == nil {
		return "", errors.New("outbound queue is nil")
	}
	if req.Destination == "" || req.Content == "" {
		return "", ErrInvalidInput
	}
	now, err := q.clock.Now()
	if err != nil {
		return "", Wrap(CodeClockUnavailable, "clock unavailable", err)
	}
	msg := QueuedMessage{
		ID:          uuid.NewString(),
		Destination: req.Destination,
		Content:     req.Content,
		Channel:     req.Channel,
		EnqueuedAt:  now,
		Status:      StatusPending,
	}
	stored, err := q.store.Append(ctx, msg)
	if err != nil {
		return "", Wrap(CodeStoreError, "enqueue failed", err)
	}
	if q.logger != nil {
		q.logger.Info("message enqueued", map[string]any{
			"message_id": stored.ID,
			"channel":    stored.Channel,
		})
	}
	return stored.ID, nil
}

// Drain attempts delivery for pending messages oldest first. Messages still
// inside their backoff window are skipped; an admission denial stops the pass
// so the loop cannot busy-spin past a closed gate. Transport failures are
// absorbed into the retry schedule until the attempts ceiling moves the
// message to the dead set.
func (q *OutboundQueue) Drain(ctx context.Context, sendFn SendFunc) (DrainResult, error) {
	if q == nil {
		return DrainResult{}, errors.New("outbound queue is nil")
	}
	if sendFn == nil {
		return DrainResult{}, errors.New("send function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	pending, err := q.store.Pending(ctx)
	if err != nil {
		return DrainResult{}, Wrap(CodeStoreError, "pending read failed", err)
	}
	result := DrainResult{StillPending: len(pending)}
	now, err := q.clock.Now()
	if err != nil {
		// Fail closed: without a clock neither backoff eligibility nor
		// window rollover can be evaluated.
		return result, Wrap(CodeClockUnavailable, "clock unavailable", err)
	}

	for _, msg := range pending {
		if ctx.Err() != nil {
			break
		}
		if msg.NextAttemptAt.After(now) {
			continue
		}
		if q.pause.IsPaused() {
			break
		}
		allowed, err := q.limiter.Reserve(ctx)
		if err != nil {
			break
		}
		if !allowed {
			break
		}
		if err := q.pacer.Wait(ctx); err != nil {
			break
		}

		msg.Status = StatusSending
		_ = q.store.Update(ctx, msg)

		sendErr := q.send(ctx, sendFn, &msg)
		msg.Attempts++
		if sendErr == nil {
			msg.Status = StatusDelivered
			if err := q.store.Remove(ctx, msg.ID); err == nil {
				result.Delivered++
				result.StillPending--
			}
			if q.metrics != nil {
				q.metrics.IncDrain("delivered")
			}
			continue
		}

		msg.LastError = sendErr.Error()
		if msg.Attempts >= q.policy.MaxAttempts {
			msg.Status = StatusFailed
			if err := q.store.MarkDead(ctx, msg); err == nil {
				result.Failed++
				result.StillPending--
			}
			if q.metrics != nil {
				q.metrics.IncDrain("dead")
			}
			if q.logger != nil {
				q.logger.Error("message moved to dead set", map[string]any{
					"message_id": msg.ID,
					"attempts":   msg.Attempts,
					"last_error": msg.LastError,
				})
			}
			continue
		}
		msg.Status = StatusPending
		msg.NextAttemptAt = now.Add(q.backoff(msg.Attempts))
		_ = q.store.Update(ctx, msg)
		if q.metrics != nil {
			q.metrics.IncDrain("retry")
		}
	}
	return result, nil
}

// List returns the pending messages oldest first.
func (q *OutboundQueue) List(ctx context.Context) ([]QueuedMessage, error) {
	if q == nil {
		return nil, errors.New("outbound queue is nil")
	}
	msgs, err := q.store.Pending(ctx)
	if err != nil {
		return nil, Wrap(CodeStoreError, "pending read failed", err)
	}
	return msgs, nil
}

// Dead returns messages that exceeded the retry ceiling, kept for operator
// inspection.
func (q *OutboundQueue) Dead(ctx context.Context) ([]QueuedMessage, error) {
	if q == nil {
		return nil, errors.New("outbound queue is nil")
	}
	msgs, err := q.store.Dead(ctx)
	if err != nil {
		return nil, Wrap(CodeStoreError, "dead read failed", err)
	}
	return msgs, nil
}

// Depth returns the pending backlog size.
func (q *OutboundQueue) Depth(ctx context.Context) int {
	if q == nil {
		return 0
	}
	msgs, err := q.store.Pending(ctx)
	if err != nil {
		return 0
	}
	return len(msgs)
}

func (q *OutboundQueue) send(ctx context.Context, sendFn SendFunc, msg *QueuedMessage) error {
	sendCtx, cancel := context.WithTimeout(ctx, q.policy.SendTimeout)
	defer cancel()
	if err := sendFn(sendCtx, msg); err != nil {
		return Wrap(CodeTransportFailure, "transport send failed", err)
	}
	return nil
}

func (q *OutboundQueue) backoff(attempts int) time.Duration {
	delay := q.policy.BackoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= q.policy.BackoffMax {
			return q.policy.BackoffMax
		}
	}
	if delay > q.policy.BackoffMax {
		delay = q.policy.BackoffMax
	}
	return delay
}
