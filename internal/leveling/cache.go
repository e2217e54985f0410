package leveling

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// ExpiringCache: map с TTL. Просроченная запись, промах сразу, а память освобождает
// Sweep: один цикл на кэш вместо таймера на каждую запись. Время берётся только из clock.
type ExpiringCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]cacheEntry[V]
	ttl   time.Duration
	clock clockwork.Clock
}

func NewExpiringCache[K comparable, V any](ttl time.Duration, clock clockwork.Clock) *ExpiringCache[K, V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ExpiringCache[K, V]{
		items: make(map[K]cacheEntry[V]),
		ttl:   ttl,
		clock: clock,
	}
}

func (c *ExpiringCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || !c.clock.Now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *ExpiringCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

func (c *ExpiringCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = cacheEntry[V]{value: value, expiresAt: c.clock.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *ExpiringCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Purge сбрасывает всё разом.
func (c *ExpiringCache[K, V]) Purge() {
	c.mu.Lock()
	c.items = make(map[K]cacheEntry[V])
	c.mu.Unlock()
}

func (c *ExpiringCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Sweep удаляет просроченные записи и возвращает их число.
func (c *ExpiringCache[K, V]) Sweep() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// Run запускает периодическую чистку до отмены ctx.
func (c *ExpiringCache[K, V]) Run(ctx context.Context, interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.Sweep()
		}
	}
}
