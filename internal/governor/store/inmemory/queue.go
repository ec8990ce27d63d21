// Package inmemory provides an in-memory queue store.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

// QueueStore keeps queued messages in memory. It preserves enqueue order but
// does not survive restarts; production deployments use the bolt store.
type QueueStore struct {
	mu      sync.Mutex
	pending []core.QueuedMessage
	dead    []core.QueuedMessage
	seq     uint64
}

// NewQueueStore constructs an empty queue store.
func NewQueueStore() *QueueStore {
	return &QueueStore{}
}

// Append stores a new message and assigns its sequence number.
func (s *QueueStore) Append(ctx context.Context, msg core.QueuedMessage) (core.QueuedMessage, error) {
	if s == nil {
		return core.QueuedMessage{}, errors.New("queue store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg.Seq = s.seq
	s.pending = append(s.pending, msg)
	return msg, nil
}

// Update rewrites a pending message in place.
func (s *QueueStore) Update(ctx context.Context, msg core.QueuedMessage) error {
	if s == nil {
		return errors.New("queue store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == msg.ID {
			s.pending[i] = msg
			return nil
		}
	}
	return core.ErrNotFound
}

// Remove deletes a delivered message from the pending set.
func (s *QueueStore) Remove(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("queue store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// MarkDead moves a message from the pending set to the dead set.
func (s *QueueStore) MarkDead(ctx context.Context, msg core.QueuedMessage) error {
	if s == nil {
		return errors.New("queue store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == msg.ID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			s.dead = append(s.dead, msg)
			return nil
		}
	}
	return core.ErrNotFound
}

// Pending returns pending messages oldest first.
func (s *QueueStore) Pending(ctx context.Context) ([]core.QueuedMessage, error) {
	if s == nil {
		return nil, errors.New("queue store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.QueuedMessage, len(s.pending))
	copy(out, s.pending)
	return out, nil
}

// Dead returns terminally failed messages oldest first.
func (s *QueueStore) Dead(ctx context.Context) ([]core.QueuedMessage, error) {
	if s == nil {
		return nil, errors.New("queue store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.QueuedMessage, len(s.dead))
	copy(out, s.dead)
	return out, nil
}
