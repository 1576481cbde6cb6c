package userconfig

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// keyPrefix namespaces cached lookups: profiles:config:<module>:<name>:<user>:<domain>.
const keyPrefix = "profiles:config:"

// cacheClient is the subset of *redis.Client used by CachedBackend.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// cacheEntry records both hits and "not configured" results.
type cacheEntry struct {
	Set   bool            `json:"set"`
	Value json.RawMessage `json:"value,omitempty"`
}

// CachedBackend is a read-through Redis cache in front of another Backend.
// Redis failures are logged and the wrapped backend is used directly.
type CachedBackend struct {
	next   Backend
	rdb    cacheClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedBackend wraps next with a cache whose entries live for ttl.
func NewCachedBackend(next Backend, rdb cacheClient, ttl time.Duration, logger *zap.Logger) *CachedBackend {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedBackend{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Lookup implements Backend.
func (c *CachedBackend) Lookup(ctx context.Context, module, name string, scope Scope) (json.RawMessage, error) {
	key := cacheKey(module, name, scope)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var e cacheEntry
		if jsonErr := json.Unmarshal(data, &e); jsonErr == nil {
			if !e.Set {
				return nil, ErrNotConfigured
			}
			return e.Value, nil
		}
		c.logger.Warn("config cache: discarding unreadable entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.Warn("config cache: get failed", zap.String("key", key), zap.Error(err))
	}

	value, err := c.next.Lookup(ctx, module, name, scope)
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		return nil, err
	}

	entry := cacheEntry{Set: err == nil, Value: value}
	if encoded, jsonErr := json.Marshal(entry); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.Warn("config cache: set failed", zap.String("key", key), zap.Error(setErr))
		}
	}
	return value, err
}

// Modules implements Backend. Module listings are not cached.
func (c *CachedBackend) Modules(ctx context.Context, scope Scope) ([]Module, error) {
	return c.next.Modules(ctx, scope)
}

// Set implements Backend. It drops every cached lookup of module/name, since
// a domain-level write changes the result for all users of that domain.
func (c *CachedBackend) Set(ctx context.Context, module, name string, scope Scope, value json.RawMessage) error {
	if err := c.next.Set(ctx, module, name, scope, value); err != nil {
		return err
	}
	c.invalidate(ctx, keyPrefix+module+":"+name+":*")
	return nil
}

func (c *CachedBackend) invalidate(ctx context.Context, pattern string) {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.logger.Warn("config cache: scan failed", zap.String("pattern", pattern), zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("config cache: delete failed", zap.String("pattern", pattern), zap.Error(err))
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

func cacheKey(module, name string, scope Scope) string {
	return keyPrefix + module + ":" + name + ":" + scope.UserID.String() + ":" + scope.DomainID.String()
}
