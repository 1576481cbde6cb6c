package features

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type finder interface {
	FindFeaturesForDomain(ctx context.Context, domainID uuid.UUID) (*Features, error)
}

type cacheEntry struct {
	features  *Features // nil records a domain without features
	expiresAt time.Time
}

func (e *cacheEntry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// CachedStore is an in-process TTL cache in front of a feature store.
// Concurrent misses for one domain share a single backend lookup. Returned
// values are shared between callers and must not be modified.
type CachedStore struct {
	next    finder
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[uuid.UUID]*cacheEntry
	group   singleflight.Group
}

// NewCachedStore wraps next with a cache of the given ttl.
func NewCachedStore(next finder, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:    next,
		ttl:     ttl,
		entries: make(map[uuid.UUID]*cacheEntry),
	}
}

// FindFeaturesForDomain returns the cached feature set of domainID, loading
// it on a miss. Lookup errors are not cached.
func (c *CachedStore) FindFeaturesForDomain(ctx context.Context, domainID uuid.UUID) (*Features, error) {
	c.mu.RLock()
	e, ok := c.entries[domainID]
	c.mu.RUnlock()
	if ok && !e.expired() {
		return e.features, nil
	}

	v, err, _ := c.group.Do(domainID.String(), func() (any, error) {
		f, err := c.next.FindFeaturesForDomain(ctx, domainID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[domainID] = &cacheEntry{features: f, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	f, _ := v.(*Features)
	return f, nil
}

// Invalidate drops the cached entry of domainID.
func (c *CachedStore) Invalidate(domainID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, domainID)
}

// Evict removes all expired entries and returns how many it removed.
func (c *CachedStore) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if e.expired() {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// StartEvictor runs Evict every interval until ctx is cancelled.
func (c *CachedStore) StartEvictor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Evict()
		case <-ctx.Done():
			return
		}
	}
}

func (c *CachedStore) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
