package cache

import (
	"encoding/json"
	"time"

	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/store"
)

// Standard TTLs. Progress goes stale fastest because it changes on every
// completed lesson; catalog detail barely changes.
const (
	TTLCourseDetail = 30 * time.Minute
	TTLProgress     = 10 * time.Minute
	TTLMyLearning   = 5 * time.Minute
)

// Cache is a typed read-through TTL window over the store. A miss is
// returned for absent keys, expired entries and undecodable payloads alike;
// Read never fails loudly.
type Cache[T any] struct {
	store *store.Store
	log   *logger.Logger
	ttl   time.Duration
}

func New[T any](s *store.Store, log *logger.Logger, ttl time.Duration) *Cache[T] {
	return &Cache[T]{store: s, log: log.With("component", "Cache"), ttl: ttl}
}

func (c *Cache[T]) Read(key string) (T, bool) {
	var zero T
	raw, at, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	if c.store.Now().Sub(at) > c.ttl {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.log.Debug("cache entry undecodable, treating as miss", "key", key, "error", err)
		return zero, false
	}
	return v, true
}

func (c *Cache[T]) Write(key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Put(key, raw)
}

func (c *Cache[T]) Invalidate(key string) {
	if err := c.store.Delete(key); err != nil {
		c.log.Warn("cache invalidate failed", "key", key, "error", err)
	}
}
