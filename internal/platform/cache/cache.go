// Package cache provides the key-value stores used to memoize derived reports.
//
// Every backend stores opaque bytes with an optional TTL. Counters written with
// Incr are readable through Get as their decimal string form.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

var ErrClosed = errors.New("cache closed")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Evict(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}

const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

type Config struct {
	Backend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	// BadgerPath empty means in-memory badger.
	BadgerPath string
}

// New opens the configured backend.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendNone:
		return Noop{}, nil
	case BackendRedis:
		return NewRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		}, log)
	case BackendBadger:
		return NewBadger(BadgerConfig{Path: cfg.BadgerPath}, log)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// GetJSON decodes the value at key into out. A value that no longer decodes is
// treated as a miss and evicted.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		_ = s.Evict(ctx, key)
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

// GetCounter reads a counter written by Incr; a missing counter is zero.
func GetCounter(ctx context.Context, s Store, key string) (int64, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, err)
	}
	return n, nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Evict(context.Context, ...string) error                   { return nil }
func (Noop) Incr(context.Context, string) (int64, error)              { return 0, nil }
func (Noop) Close() error                                             { return nil }
