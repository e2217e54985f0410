package leveling

import (
	"context"
	"fmt"
	"time"

	"github.com/TheRandomCody/Ulti-Bot/internal/infra"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// CooldownStore ограничивает частоту начисления опыта.
// Acquire атомарно занимает ключ на ttl; false: ключ уже занят.
// Release отдаёт ключ назад, если начисление не состоялось.
type CooldownStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// MemoryCooldowns: кулдауны одного процесса.
type MemoryCooldowns struct {
	cache *ExpiringCache[string, struct{}]
}

func NewMemoryCooldowns(clock clockwork.Clock) *MemoryCooldowns {
	return &MemoryCooldowns{cache: NewExpiringCache[string, struct{}](0, clock)}
}

func (m *MemoryCooldowns) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	m.cache.mu.Lock()
	defer m.cache.mu.Unlock()

	now := m.cache.clock.Now()
	if e, ok := m.cache.items[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	m.cache.items[key] = cacheEntry[struct{}]{expiresAt: now.Add(ttl)}
	return true, nil
}

func (m *MemoryCooldowns) Release(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Run чистит истёкшие кулдауны.
func (m *MemoryCooldowns) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	m.cache.Run(ctx, interval)
}

// RedisCooldowns: общие кулдауны для нескольких инстансов (SET NX PX).
type RedisCooldowns struct {
	rdb *redis.Client
}

func NewRedisCooldowns(rdb *redis.Client) *RedisCooldowns {
	return &RedisCooldowns{rdb: rdb}
}

func (r *RedisCooldowns) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	ok, err := r.rdb.SetNX(ctx, infra.RedisCooldownKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx cooldown: %w", err)
	}
	return ok, nil
}

func (r *RedisCooldowns) Release(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, infra.RedisCooldownKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del cooldown: %w", err)
	}
	return nil
}
