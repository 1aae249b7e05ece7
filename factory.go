package kvstash

import "context"

// NewPort returns a concrete port for the requested driver.
//
// Drivers that need backend-specific dependencies (redis client, sql DSN,
// nats bucket) fall back to an unavailable port when those dependencies are
// missing or fail to initialize: the driver identity is preserved and every
// call reports the underlying error, so callers observe "binding not
// configured" rather than a silent empty store.
func NewPort(ctx context.Context, cfg PortConfig) Port {
	cfg = cfg.withDefaults()
	switch cfg.Driver {
	case DriverRedis:
		if cfg.RedisClient == nil {
			return newUnavailablePort(DriverRedis, ErrPortUnavailable)
		}
		return newRedisPort(cfg.RedisClient, cfg.Prefix)
	case DriverNATS:
		if cfg.NATSKeyValue == nil {
			return newUnavailablePort(DriverNATS, ErrPortUnavailable)
		}
		return newNATSPort(cfg.NATSKeyValue, cfg.Prefix)
	case DriverSQL:
		port, err := newSQLPort(cfg)
		if err != nil {
			return newUnavailablePort(DriverSQL, err)
		}
		return port
	case DriverDynamo:
		port, err := newDynamoPort(ctx, cfg)
		if err != nil {
			return newUnavailablePort(DriverDynamo, err)
		}
		return port
	case DriverNull:
		return newNullPort()
	case DriverUnavailable:
		return newUnavailablePort(DriverUnavailable, ErrPortUnavailable)
	default:
		return newMemoryPort(cfg.MemoryCleanupInterval)
	}
}

// NewPortWith builds a port using a driver and a set of functional options.
func NewPortWith(ctx context.Context, driver Driver, opts ...PortOption) Port {
	cfg := PortConfig{Driver: driver}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return NewPort(ctx, cfg)
}

// NewMemoryPort is a convenience for an in-process port with optional overrides.
func NewMemoryPort(ctx context.Context, opts ...PortOption) Port {
	return NewPortWith(ctx, DriverMemory, opts...)
}

// NewRedisPort is a convenience for a redis-backed port. Redis client is required.
func NewRedisPort(ctx context.Context, client RedisClient, opts ...PortOption) Port {
	return NewPortWith(ctx, DriverRedis, append([]PortOption{WithRedisClient(client)}, opts...)...)
}

// NewNATSPort is a convenience for a JetStream KV backed port. Bucket is required.
func NewNATSPort(ctx context.Context, kv NATSKeyValue, opts ...PortOption) Port {
	return NewPortWith(ctx, DriverNATS, append([]PortOption{WithNATSKeyValue(kv)}, opts...)...)
}

// NewSQLPort is a convenience for a database-backed port.
func NewSQLPort(ctx context.Context, driverName, dsn string, opts ...PortOption) Port {
	return NewPortWith(ctx, DriverSQL, append([]PortOption{WithSQL(driverName, dsn)}, opts...)...)
}

// NewNullPort returns a port that accepts writes and always misses on reads.
func NewNullPort(ctx context.Context, opts ...PortOption) Port {
	return NewPortWith(ctx, DriverNull, opts...)
}

// NewUnavailablePort returns a port representing a binding that was never
// configured. Every call, including Ready, reports ErrPortUnavailable.
func NewUnavailablePort() Port {
	return newUnavailablePort(DriverUnavailable, ErrPortUnavailable)
}
