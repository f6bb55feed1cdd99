// Package cache memoizes values with a time-to-live on top of a persistent
// key/value store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sellImpact/internal/model"
)

// DefaultNamespace prefixes every key written by Cache.
const DefaultNamespace = "sellimpact:"

// Store is the persistent key/value collaborator behind Cache.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

type entry struct {
	ExpiresAt int64           `json:"expiresAt"`
	Value     json.RawMessage `json:"value"`
}

// Cache stores JSON values as {expiresAt, value} records.
type Cache struct {
	store     Store
	namespace string
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(c *Cache) { c.namespace = ns }
}

func New(store Store, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Cache{
		store:     store,
		namespace: DefaultNamespace,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the live value for key into dst. Misses, expired entries, store
// errors and undecodable records all report false.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	raw, ok, err := c.store.Load(ctx, c.namespace+key)
	if err != nil {
		c.logger.Debug("cache load failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Debug("cache entry dropped", zap.String("key", key), zap.Error(fmt.Errorf("%w: %v", model.ErrParseFailure, err)))
		return false
	}
	if e.ExpiresAt <= 0 || c.now().UnixMilli() > e.ExpiresAt || len(e.Value) == 0 {
		return false
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		c.logger.Debug("cache value dropped", zap.String("key", key), zap.Error(fmt.Errorf("%w: %v", model.ErrParseFailure, err)))
		return false
	}
	return true
}

// Set stores value under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	val, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	data, err := json.Marshal(entry{
		ExpiresAt: c.now().Add(ttl).UnixMilli(),
		Value:     val,
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.store.Save(ctx, c.namespace+key, data, ttl); err != nil {
		return fmt.Errorf("save cache entry: %w", err)
	}
	return nil
}
