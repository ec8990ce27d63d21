// Package redisstore provides shared fixed-window counters in Redis.
package redisstore

import (
	"context"
	_ "embed"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

//go:embed fixed_window.lua
var fixedWindowScript string

// CounterStore keeps the quota counters in Redis so several backend replicas
// share one quota pool. Check-and-increment runs server-side in Lua, so the
// admission critical section holds across processes. Window rollover is
// handled by keying on the window start and letting the key expire.
type CounterStore struct {
	client    *redis.Client
	scriptSHA string
	keyPrefix string
}

// NewCounterStore verifies connectivity and loads the counter script.
func NewCounterStore(client *redis.Client, keyPrefix string) (*CounterStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if keyPrefix == "" {
		keyPrefix = "governor"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	sha, err := client.ScriptLoad(ctx, fixedWindowScript).Result()
	if err != nil {
		return nil, err
	}
	return &CounterStore{client: client, scriptSHA: sha, keyPrefix: keyPrefix}, nil
}

// Peek reads both counters without mutating them.
func (s *CounterStore) Peek(ctx context.Context, hour, day core.WindowRef) (int64, int64, error) {
	if s == nil || s.client == nil {
		return 0, 0, errors.New("counter store is nil")
	}
	values, err := s.client.MGet(ctx, s.key(hour), s.key(day)).Result()
	if err != nil {
		return 0, 0, err
	}
	if len(values) != 2 {
		return 0, 0, errors.New("invalid mget response")
	}
	return toCount(values[0]), toCount(values[1]), nil
}

// Incr increments both counters as one atomic step.
func (s *CounterStore) Incr(ctx context.Context, hour, day core.WindowRef) (int64, int64, error) {
	hourly, daily, _, err := s.eval(ctx, hour, day, "force")
	return hourly, daily, err
}

// CheckAndIncr increments both counters only if neither window is full.
func (s *CounterStore) CheckAndIncr(ctx context.Context, hour, day core.WindowRef) (int64, int64, bool, error) {
	return s.eval(ctx, hour, day, "check")
}

func (s *CounterStore) eval(ctx context.Context, hour, day core.WindowRef, mode string) (int64, int64, bool, error) {
	if s == nil || s.client == nil {
		return 0, 0, false, errors.New("counter store is nil")
	}
	result, err := s.client.EvalSha(ctx, s.scriptSHA, []string{s.key(hour), s.key(day)},
		hour.Limit,
		day.Limit,
		hour.TTL.Milliseconds(),
		day.TTL.Milliseconds(),
		mode,
	).Result()
	if err != nil {
		return 0, 0, false, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return 0, 0, false, errors.New("invalid lua response format")
	}
	applied, _ := values[0].(int64)
	hourly, _ := values[1].(int64)
	daily, _ := values[2].(int64)
	return hourly, daily, applied == 1, nil
}

func (s *CounterStore) key(ref core.WindowRef) string {
	return s.keyPrefix + ":usage:" + string(ref.Kind) + ":" + strconv.FormatInt(ref.Start.Unix(), 10)
}

func toCount(value any) int64 {
	switch v := value.(type) {
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case int64:
		return v
	default:
		return 0
	}
}
