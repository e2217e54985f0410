package leveling

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiringCache_ExpiresOnVirtualClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewExpiringCache[string, int](5*time.Minute, clock)

	cache.Set("g1", 1)
	v, ok := cache.Get("g1")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clock.Advance(5*time.Minute - time.Second)
	_, ok = cache.Get("g1")
	assert.True(t, ok, "still fresh right before ttl")

	clock.Advance(time.Second)
	_, ok = cache.Get("g1")
	assert.False(t, ok, "expired entry is a miss even before sweep")
	assert.Equal(t, 1, cache.Len())

	assert.Equal(t, 1, cache.Sweep())
	assert.Zero(t, cache.Len())
}

func TestExpiringCache_DeleteAndPurge(t *testing.T) {
	cache := NewExpiringCache[string, string](time.Minute, clockwork.NewFakeClock())
	cache.Set("a", "1")
	cache.Set("b", "2")

	cache.Delete("a")
	_, ok := cache.Get("a")
	assert.False(t, ok)

	cache.Purge()
	assert.Zero(t, cache.Len())
}

func TestExpiringCache_RunSweepsOnTicker(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewExpiringCache[string, int](time.Minute, clock)
	cache.Set("short", 1)
	cache.SetWithTTL("long", 2, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.Run(ctx, 30*time.Second)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(2 * time.Minute)

	assert.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 5*time.Millisecond)
	_, ok := cache.Get("long")
	assert.True(t, ok)

	cancel()
	<-done
}
