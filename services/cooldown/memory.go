package cooldownsvc

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/entitlement"
)

const (
	DefaultWindow  = 2 * time.Minute
	DefaultMaxKeys = 10000
)

// MemoryCooldown is a process-local cooldown. Under several instances it only throttles per instance.
type MemoryCooldown struct {
	window  time.Duration
	maxKeys int
	clock   core.Clock

	mu      sync.Mutex
	expires map[string]time.Time
}

var _ entitlement.Cooldown = (*MemoryCooldown)(nil)

func NewMemoryCooldown(window time.Duration, maxKeys int, clock core.Clock) *MemoryCooldown {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	if clock == nil {
		clock = core.SystemClock
	}
	return &MemoryCooldown{
		window:  window,
		maxKeys: maxKeys,
		clock:   clock,
		expires: make(map[string]time.Time),
	}
}

func (c *MemoryCooldown) Allow(_ context.Context, key string) (bool, error) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if exp, ok := c.expires[key]; ok {
		if now.Before(exp) {
			return false, nil
		}
	} else if len(c.expires) >= c.maxKeys {
		c.evict(now)
	}
	c.expires[key] = now.Add(c.window)
	return true, nil
}

// Len returns the number of tracked keys, expired ones included.
func (c *MemoryCooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.expires)
}

// evict drops expired keys; when none expired, it drops the key closest to expiry.
// c.mu must be held.
func (c *MemoryCooldown) evict(now time.Time) {
	var (
		oldest    string
		oldestExp time.Time
		found     bool
	)
	for key, exp := range c.expires {
		if !now.Before(exp) {
			delete(c.expires, key)
			continue
		}
		if !found || exp.Before(oldestExp) {
			oldest, oldestExp, found = key, exp, true
		}
	}
	if len(c.expires) >= c.maxKeys && found {
		delete(c.expires, oldest)
	}
}
