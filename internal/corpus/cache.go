package corpus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mealwise/mealwise/internal/recipe"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is used when NewCache gets a non-positive TTL.
const DefaultCacheTTL = 10 * time.Minute

type cacheEntry struct {
	index     *recipe.Index
	expiresAt time.Time
}

// Cache holds built indexes keyed by source. Concurrent misses for the same
// source share one load via singleflight. Failed loads are not cached.
type Cache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	store map[string]cacheEntry
	sf    singleflight.Group
}

// NewCache wraps a provider.
func NewCache(p Provider, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		provider: p,
		ttl:      ttl,
		now:      time.Now,
		store:    make(map[string]cacheEntry),
	}
}

// SetClock replaces the cache's time source. Tests only.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

func (c *Cache) get(source string) (*recipe.Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[source]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.index, true
}

func (c *Cache) set(source string, idx *recipe.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[source] = cacheEntry{index: idx, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops a cached index so the next Index call reloads it.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, source)
}

// Index returns the index for source, loading it on a miss.
func (c *Cache) Index(ctx context.Context, source string) (*recipe.Index, error) {
	if idx, ok := c.get(source); ok {
		log.Debug().Str("source", source).Msg("corpus cache hit")
		return idx, nil
	}

	v, err, shared := c.sf.Do(source, func() (interface{}, error) {
		// another caller may have filled the entry while we waited
		if idx, ok := c.get(source); ok {
			return idx, nil
		}

		log.Debug().Str("source", source).Msg("corpus cache miss, loading")
		start := time.Now()

		corp, err := c.provider.Load(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("load corpus %q: %w", source, err)
		}
		idx, err := corp.Index()
		if err != nil {
			return nil, fmt.Errorf("corpus %q: %w", source, err)
		}
		c.set(source, idx)

		log.Info().
			Str("source", source).
			Int("recipes", idx.Len()).
			Int("meals", idx.MealCount()).
			Dur("load_ms", time.Since(start)).
			Msg("corpus cached")
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug().Str("source", source).Msg("corpus load shared with concurrent caller")
	}
	return v.(*recipe.Index), nil
}
