package kvstash

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memoryPort struct {
	cache *gocache.Cache
	mu    sync.Mutex
}

func newMemoryPort(cleanupInterval time.Duration) Port {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultMemoryCleanupInterval
	}
	return &memoryPort{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (p *memoryPort) Driver() Driver { return DriverMemory }

func (p *memoryPort) Ready(context.Context) error { return nil }

func (p *memoryPort) Get(_ context.Context, key string) ([]byte, bool, error) {
	item, ok := p.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	body, ok := item.([]byte)
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(body), true, nil
}

func (p *memoryPort) Put(_ context.Context, key string, value []byte) error {
	p.cache.Set(key, cloneBytes(value), gocache.NoExpiration)
	return nil
}

func (p *memoryPort) Increment(_ context.Context, key string, delta int64) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := int64(0)
	if item, ok := p.cache.Get(key); ok {
		body, ok := item.([]byte)
		if !ok {
			return 0, fmt.Errorf("kvstash: key %q does not contain a numeric value", key)
		}
		n, err := strconv.ParseInt(string(body), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("kvstash: key %q does not contain a numeric value", key)
		}
		current = n
	}
	next := current + delta
	p.cache.Set(key, []byte(strconv.FormatInt(next, 10)), gocache.NoExpiration)
	return next, nil
}
