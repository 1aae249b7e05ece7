package kvstash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const entryMarker = "kvstash-v1"

// cacheEntry is the stored envelope: the opaque payload plus the moment it
// was written. Freshness is judged against StoredAt, not a backend TTL, so
// the same envelope works on backends without native expiry.
type cacheEntry struct {
	Marker   string `json:"m"`
	Value    []byte `json:"v"`
	StoredAt int64  `json:"sa"`
}

// Cache is a TTL-based read-through cache over a Port.
//
// There is no invalidation operation: expiry is the only removal mechanism,
// so readers may observe values up to ttl old. When the port is unavailable
// the cache degrades to calling the compute callback directly.
type Cache struct {
	port       Port
	defaultTTL time.Duration
	observer   Observer
	now        func() time.Time
}

// NewCache creates a cache bound to a concrete port.
func NewCache(port Port) *Cache {
	return NewCacheWithTTL(port, defaultCacheTTL)
}

// NewCacheWithTTL lets callers override the default TTL applied when ttl <= 0.
func NewCacheWithTTL(port Port, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = defaultCacheTTL
	}
	return &Cache{
		port:       port,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithObserver attaches an observer to receive operation events.
func (c *Cache) WithObserver(o Observer) *Cache {
	c.observer = o
	return c
}

// Port returns the underlying port.
func (c *Cache) Port() Port {
	return c.port
}

// Driver reports the underlying port driver.
func (c *Cache) Driver() Driver {
	return c.port.Driver()
}

// GetOrCompute returns the cached value for key when it is younger than ttl,
// otherwise invokes fn, stores the result with the current timestamp, and
// returns it.
//
// Degraded outcomes never surface as errors: an unavailable port skips
// caching and returns fn's result directly, a malformed stored envelope is
// treated as a miss and overwritten, and a failed write-back still returns
// the freshly computed value. Only fn's own error propagates.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	if fn == nil {
		return nil, errors.New("kvstash: get-or-compute requires a callback")
	}
	ttl = c.resolveTTL(ttl)
	start := c.now()

	body, ok, getErr := c.port.Get(ctx, key)
	if getErr != nil {
		value, err := fn(ctx)
		if err != nil {
			c.observe(ctx, "get_or_compute", key, false, err, start)
			return nil, err
		}
		// Writing back is pointless when the binding is absent, but a
		// transient read fault does not imply writes will fail too.
		if !errors.Is(getErr, ErrPortUnavailable) {
			c.writeBack(ctx, key, value, start)
		}
		c.observe(ctx, "get_or_compute", key, false, getErr, start)
		return value, nil
	}
	if ok {
		entry, valid := decodeCacheEntry(body)
		if valid {
			if c.now().UnixMilli()-entry.StoredAt < ttl.Milliseconds() {
				c.observe(ctx, "get_or_compute", key, true, nil, start)
				return cloneBytes(entry.Value), nil
			}
		} else {
			c.observe(ctx, "get_or_compute", key, false, fmt.Errorf("kvstash: malformed cache entry for key %q", key), start)
		}
	}

	value, err := fn(ctx)
	if err != nil {
		c.observe(ctx, "get_or_compute", key, false, err, start)
		return nil, err
	}
	c.writeBack(ctx, key, value, start)
	c.observe(ctx, "get_or_compute", key, false, nil, start)
	return value, nil
}

// GetOrComputeString is the string variant of GetOrCompute.
func (c *Cache) GetOrComputeString(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (string, error)) (string, error) {
	if fn == nil {
		return "", errors.New("kvstash: get-or-compute requires a callback")
	}
	value, err := c.GetOrCompute(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		body, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return []byte(body), nil
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// GetOrComputeJSON returns a typed value, caching it JSON-encoded.
func GetOrComputeJSON[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if fn == nil {
		return zero, errors.New("kvstash: get-or-compute requires a callback")
	}
	body, err := c.GetOrCompute(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		// The cached payload no longer decodes into T: a malformed entry in
		// typed clothing. Report it, recompute, and overwrite so the broken
		// payload does not survive until expiry.
		start := c.now()
		c.observe(ctx, "get_or_compute", key, false, fmt.Errorf("kvstash: cached payload for key %q does not decode: %w", key, err), start)
		value, fnErr := fn(ctx)
		if fnErr != nil {
			return zero, fnErr
		}
		if encoded, marshalErr := json.Marshal(value); marshalErr == nil {
			c.writeBack(ctx, key, encoded, start)
		}
		return value, nil
	}
	return out, nil
}

// writeBack stores value best-effort: failures are observed, never returned.
func (c *Cache) writeBack(ctx context.Context, key string, value []byte, start time.Time) {
	entry := cacheEntry{
		Marker:   entryMarker,
		Value:    cloneBytes(value),
		StoredAt: c.now().UnixMilli(),
	}
	body, err := json.Marshal(entry)
	if err == nil {
		err = c.port.Put(ctx, key, body)
	}
	if err != nil {
		c.observe(ctx, "write_back", key, false, err, start)
	}
}

func decodeCacheEntry(body []byte) (cacheEntry, bool) {
	var entry cacheEntry
	if len(body) == 0 || body[0] != '{' {
		return cacheEntry{}, false
	}
	if err := json.Unmarshal(body, &entry); err != nil {
		return cacheEntry{}, false
	}
	if entry.Marker != entryMarker || entry.StoredAt <= 0 {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *Cache) resolveTTL(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return c.defaultTTL
}

func (c *Cache) observe(ctx context.Context, op, key string, hit bool, err error, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.OnOp(ctx, op, key, hit, err, c.now().Sub(start), c.Driver())
}
