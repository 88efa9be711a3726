package memory

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache - in-memory кеш с TTL на каждую запись
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	items    map[K]item[V]
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

func New[K comparable, V any]() *Cache[K, V] {
	return NewWithContext[K, V](context.Background(), 5*time.Minute)
}

func NewWithContext[K comparable, V any](ctx context.Context, cleanupEvery time.Duration) *Cache[K, V] {
	if cleanupEvery <= 0 {
		cleanupEvery = 5 * time.Minute
	}
	c := &Cache[K, V]{
		items:    make(map[K]item[V]),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	go c.cleanup(ctx, cleanupEvery)
	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || c.now().After(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = item[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Update атомарно меняет значение. fn получает текущее значение (или zero) и
// признак его наличия. TTL отсчитывается заново.
func (c *Cache[K, V]) Update(key K, ttl time.Duration, fn func(cur V, ok bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	it, ok := c.items[key]
	if ok && now.After(it.expiresAt) {
		ok = false
		var zero V
		it.value = zero
	}

	v := fn(it.value, ok)
	c.items[key] = item[V]{value: v, expiresAt: now.Add(ttl)}
	return v
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Cache[K, V]) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache[K, V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
		}
	}
}
