// Package boltstore provides the durable bbolt-backed queue store.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

var (
	pendingBucket = []byte("queue_pending")
	deadBucket    = []byte("queue_dead")
	indexBucket   = []byte("queue_index")
)

// QueueStore persists queued messages in a bbolt file. Keys are big-endian
// sequence numbers, so bucket iteration order is enqueue order and the
// pending set survives restarts.
type QueueStore struct {
	db *bolt.DB
}

// Open opens or creates the queue database at path.
func Open(path string) (*QueueStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second, // don't block forever if someone else holds the file
	})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{pendingBucket, deadBucket, indexBucket} {
			if _, e := tx.CreateBucketIfNotExists(bucket); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &QueueStore{db: db}, nil
}

// Close releases the database file.
func (s *QueueStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append stores a new message and assigns its sequence number.
func (s *QueueStore) Append(ctx context.Context, msg core.QueuedMessage) (core.QueuedMessage, error) {
	if s == nil || s.db == nil {
		return core.QueuedMessage{}, errors.New("queue store is nil")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(pendingBucket)
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		msg.Seq = seq
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := bkt.Put(key, data); err != nil {
			return err
		}
		return tx.Bucket(indexBucket).Put([]byte(msg.ID), key)
	})
	if err != nil {
		return core.QueuedMessage{}, err
	}
	return msg, nil
}

// Update rewrites a pending message in place.
func (s *QueueStore) Update(ctx context.Context, msg core.QueuedMessage) error {
	if s == nil || s.db == nil {
		return errors.New("queue store is nil")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		key := tx.Bucket(indexBucket).Get([]byte(msg.ID))
		if key == nil {
			return core.ErrNotFound
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return tx.Bucket(pendingBucket).Put(key, data)
	})
}

// Remove deletes a delivered message from the pending set.
func (s *QueueStore) Remove(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("queue store is nil")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		index := tx.Bucket(indexBucket)
		key := index.Get([]byte(id))
		if key == nil {
			return core.ErrNotFound
		}
		if err := tx.Bucket(pendingBucket).Delete(key); err != nil {
			return err
		}
		return index.Delete([]byte(id))
	})
}

// MarkDead moves a message from the pending set to the dead set.
func (s *QueueStore) MarkDead(ctx context.Context, msg core.QueuedMessage) error {
	if s == nil || s.db == nil {
		return errors.New("queue store is nil")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		index := tx.Bucket(indexBucket)
		key := index.Get([]byte(msg.ID))
		if key == nil {
			return core.ErrNotFound
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := tx.Bucket(deadBucket).Put(key, data); err != nil {
			return err
		}
		if err := tx.Bucket(pendingBucket).Delete(key); err != nil {
			return err
		}
		return index.Delete([]byte(msg.ID))
	})
}

// Pending returns pending messages oldest first.
func (s *QueueStore) Pending(ctx context.Context) ([]core.QueuedMessage, error) {
	return s.scan(pendingBucket)
}

// Dead returns terminally failed messages oldest first.
func (s *QueueStore) Dead(ctx context.Context) ([]core.QueuedMessage, error) {
	return s.scan(deadBucket)
}

func (s *QueueStore) scan(bucket []byte) ([]core.QueuedMessage, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("queue store is nil")
	}
	var out []core.QueuedMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			var msg core.QueuedMessage
			if err := json.Unmarshal(v, &msg); err != nil {
				return err
			}
			out = append(out, msg)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
