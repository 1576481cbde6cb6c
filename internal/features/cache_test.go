package features

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFinder struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (f *countingFinder) FindFeaturesForDomain(_ context.Context, domainID uuid.UUID) (*Features, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Features{DomainID: domainID.String()}, nil
}

func (f *countingFinder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCachedStore_hit(t *testing.T) {
	next := &countingFinder{}
	c := NewCachedStore(next, time.Minute)
	domainID := uuid.New()

	for i := 0; i < 3; i++ {
		f, err := c.FindFeaturesForDomain(context.Background(), domainID)
		require.NoError(t, err)
		assert.Equal(t, domainID.String(), f.DomainID)
	}
	assert.Equal(t, 1, next.count())
}

func TestCachedStore_expiry(t *testing.T) {
	next := &countingFinder{}
	c := NewCachedStore(next, 10*time.Millisecond)
	domainID := uuid.New()

	_, err := c.FindFeaturesForDomain(context.Background(), domainID)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = c.FindFeaturesForDomain(context.Background(), domainID)
	require.NoError(t, err)

	assert.Equal(t, 2, next.count())
}

func TestCachedStore_errorsAreNotCached(t *testing.T) {
	next := &countingFinder{err: errors.New("mongo down")}
	c := NewCachedStore(next, time.Minute)
	domainID := uuid.New()

	for i := 0; i < 2; i++ {
		_, err := c.FindFeaturesForDomain(context.Background(), domainID)
		assert.Error(t, err)
	}
	assert.Equal(t, 2, next.count())
	assert.Zero(t, c.len())
}

func TestCachedStore_concurrentMissesShareLookup(t *testing.T) {
	next := &countingFinder{block: make(chan struct{})}
	c := NewCachedStore(next, time.Minute)
	domainID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.FindFeaturesForDomain(context.Background(), domainID)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(next.block)
	wg.Wait()

	assert.Equal(t, 1, next.count())
}

func TestCachedStore_invalidateAndEvict(t *testing.T) {
	next := &countingFinder{}
	c := NewCachedStore(next, 10*time.Millisecond)
	a, b := uuid.New(), uuid.New()

	_, _ = c.FindFeaturesForDomain(context.Background(), a)
	_, _ = c.FindFeaturesForDomain(context.Background(), b)
	require.Equal(t, 2, c.len())

	c.Invalidate(a)
	assert.Equal(t, 1, c.len())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, c.Evict())
	assert.Zero(t, c.len())
}
