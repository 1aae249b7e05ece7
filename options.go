package kvstash

import "time"

// PortOption mutates PortConfig when constructing a port.
type PortOption func(PortConfig) PortConfig

// WithPrefix sets the key prefix for shared backends (e.g., redis).
func WithPrefix(prefix string) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.Prefix = prefix
		return cfg
	}
}

// WithMemoryCleanupInterval overrides the sweep interval for the memory driver.
func WithMemoryCleanupInterval(interval time.Duration) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.MemoryCleanupInterval = interval
		return cfg
	}
}

// WithRedisClient sets the redis client; required when using DriverRedis.
func WithRedisClient(client RedisClient) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.RedisClient = client
		return cfg
	}
}

// WithNATSKeyValue sets the JetStream key-value bucket; required when using DriverNATS.
func WithNATSKeyValue(kv NATSKeyValue) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.NATSKeyValue = kv
		return cfg
	}
}

// WithSQL sets the database/sql driver name and DSN; required when using DriverSQL.
func WithSQL(driverName, dsn string) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.SQLDriverName = driverName
		cfg.SQLDSN = dsn
		return cfg
	}
}

// WithSQLTable overrides the table name used by the sql driver.
func WithSQLTable(table string) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.SQLTable = table
		return cfg
	}
}

// WithDynamoClient sets a pre-built DynamoDB client.
func WithDynamoClient(client DynamoAPI) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.DynamoClient = client
		return cfg
	}
}

// WithDynamoTable overrides the table name used by the dynamodb driver.
func WithDynamoTable(table string) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.DynamoTable = table
		return cfg
	}
}

// WithDynamoRegion sets the AWS region used when building a DynamoDB client.
func WithDynamoRegion(region string) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.DynamoRegion = region
		return cfg
	}
}

// WithDynamoEndpoint points the DynamoDB client at a custom endpoint (e.g. dynamodb-local).
func WithDynamoEndpoint(endpoint string) PortOption {
	return func(cfg PortConfig) PortConfig {
		cfg.DynamoEndpoint = endpoint
		return cfg
	}
}
