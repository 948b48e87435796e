package cooldownsvc

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/launchpad/core"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ core.Clock = (*manualClock)(nil)

func TestMemoryCooldown_Allow(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCooldown(0, 0, clock)
	ctx := context.Background()

	allowed, err := c.Allow(ctx, "a:b")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _ = c.Allow(ctx, "a:b")
	assert.False(t, allowed, "second attempt within the window")

	allowed, _ = c.Allow(ctx, "c")
	assert.True(t, allowed, "keys are independent")

	clock.advance(DefaultWindow - time.Second)
	allowed, _ = c.Allow(ctx, "a:b")
	assert.False(t, allowed)

	clock.advance(time.Second)
	allowed, _ = c.Allow(ctx, "a:b")
	assert.True(t, allowed, "window elapsed")
}

func TestMemoryCooldown_bounded(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCooldown(time.Minute, 3, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _ := c.Allow(ctx, fmt.Sprintf("k%d", i))
		require.True(t, allowed)
		clock.advance(time.Second)
	}
	require.Equal(t, 3, c.Len())

	// full and nothing expired: the key closest to expiry (k0) goes
	allowed, _ := c.Allow(ctx, "k3")
	assert.True(t, allowed)
	assert.Equal(t, 3, c.Len())
	allowed, _ = c.Allow(ctx, "k0")
	assert.True(t, allowed, "k0 was evicted")

	// once expired, every stale key is dropped at once
	clock.advance(2 * time.Minute)
	allowed, _ = c.Allow(ctx, "k9")
	assert.True(t, allowed)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCooldown_concurrent(t *testing.T) {
	c := NewMemoryCooldown(time.Hour, 0, nil)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := c.Allow(context.Background(), "owner:user"); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, granted)
}

type fakeRedis struct {
	redis.Cmdable // only SetNX is implemented

	keys map[string]time.Duration
	err  error
}

func (r *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	if r.err != nil {
		return redis.NewBoolResult(false, r.err)
	}
	if _, ok := r.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	r.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func TestRedisCooldown_Allow(t *testing.T) {
	rdb := &fakeRedis{keys: make(map[string]time.Duration)}
	c := NewRedisCooldown(rdb, 90*time.Second)
	ctx := context.Background()

	allowed, err := c.Allow(ctx, "a:b")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, map[string]time.Duration{"entitlement:reconcile:a:b": 90 * time.Second}, rdb.keys)

	allowed, err = c.Allow(ctx, "a:b")
	require.NoError(t, err)
	assert.False(t, allowed)

	rdb.err = errors.New("connection refused")
	_, err = c.Allow(ctx, "c")
	assert.EqualError(t, err, "setting cooldown key: connection refused")
}
