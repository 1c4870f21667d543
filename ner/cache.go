package ner

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Cache is a thread-safe, keyed model cache. Access is serialized by a
// mutex, and the critical section spans both lookup and miss-insertion so
// concurrent misses for the same key load exactly once — the same
// guarantee the teacher's graph.Builder gives its semaphore-bounded
// goroutine pool, applied here to a cache instead of a work queue.
//
// Cached models must themselves be safe for concurrent inference; Cache
// does not serialize calls to an already-loaded Model.
type Cache struct {
	mu      sync.Mutex
	models  map[string]Model
	loading map[string]*sync.WaitGroup
	limiter *rate.Limiter
}

// NewCache returns an empty Cache. limiter, if non-nil, throttles
// concurrent load attempts for models not yet in the cache, so a burst of
// callers asking for the same unloaded model doesn't all hit the loader
// at once; pass nil to load without throttling.
func NewCache(limiter *rate.Limiter) *Cache {
	return &Cache{
		models:  make(map[string]Model),
		loading: make(map[string]*sync.WaitGroup),
		limiter: limiter,
	}
}

// GetOrLoad returns the cached Model for name, loading it via loader on a
// cache miss. Concurrent callers racing on the same name block on the
// first caller's load rather than each invoking loader themselves.
func (c *Cache) GetOrLoad(ctx context.Context, name string, loader Loader) (Model, error) {
	c.mu.Lock()
	if m, ok := c.models[name]; ok {
		c.mu.Unlock()
		return m, nil
	}
	if wg, loading := c.loading[name]; loading {
		c.mu.Unlock()
		wg.Wait()
		c.mu.Lock()
		m, ok := c.models[name]
		c.mu.Unlock()
		if !ok {
			return nil, errModelLoadFailed
		}
		return m, nil
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	c.loading[name] = wg
	c.mu.Unlock()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.mu.Lock()
			delete(c.loading, name)
			c.mu.Unlock()
			wg.Done()
			return nil, err
		}
	}

	model, err := loader(ctx, name)

	c.mu.Lock()
	delete(c.loading, name)
	if err == nil {
		c.models[name] = model
	}
	c.mu.Unlock()
	wg.Done()

	if err != nil {
		return nil, err
	}
	return model, nil
}

// ClearCache drains the cache under the same lock used by GetOrLoad, for
// test isolation between pipeline runs.
func (c *Cache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = make(map[string]Model)
}
