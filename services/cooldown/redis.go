package cooldownsvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/launchpad/core"
	"github.com/trezcool/launchpad/core/entitlement"
)

// RedisCooldown shares the cooldown between instances: the first SET NX wins the window.
type RedisCooldown struct {
	rdb    redis.Cmdable
	window time.Duration
	prefix string
}

var _ entitlement.Cooldown = (*RedisCooldown)(nil)

func NewRedisCooldown(rdb redis.Cmdable, window time.Duration) *RedisCooldown {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisCooldown{
		rdb:    rdb,
		window: window,
		prefix: entitlement.DefaultCooldownPrefix,
	}
}

// NewRedisClient connects to the configured Redis server and pings it.
func NewRedisClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        conf.Addr,
		Password:    conf.Password,
		DB:          conf.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

func (c *RedisCooldown) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, c.prefix+key, 1, c.window).Result()
	if err != nil {
		return false, errors.Wrap(err, "setting cooldown key")
	}
	return ok, nil
}
