package kvstash

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient captures the subset of redis.Client used by the port.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	IncrBy(ctx context.Context, key string, value int64) *redis.IntCmd
}

type redisPort struct {
	client RedisClient
	prefix string
}

func newRedisPort(client RedisClient, prefix string) Port {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &redisPort{client: client, prefix: prefix}
}

func (p *redisPort) Driver() Driver { return DriverRedis }

func (p *redisPort) Ready(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return ErrPortUnavailable
	}
	return nil
}

func (p *redisPort) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := p.client.Get(ctx, p.portKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (p *redisPort) Put(ctx context.Context, key string, value []byte) error {
	return p.client.Set(ctx, p.portKey(key), value, 0).Err()
}

func (p *redisPort) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return p.client.IncrBy(ctx, p.portKey(key), delta).Result()
}

func (p *redisPort) portKey(key string) string {
	return p.prefix + ":" + key
}
