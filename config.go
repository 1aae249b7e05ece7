package kvstash

import "time"

const (
	defaultPrefix                = "app"
	defaultCacheTTL              = 5 * time.Minute
	defaultMemoryCleanupInterval = 10 * time.Minute
	defaultMetricsKey            = "analytics-data"
)

// defaultMetricNames is the allow-list applied when none is configured.
var defaultMetricNames = []string{
	"button-clicks",
	"page-views",
	"feature-interactions",
	"user-signups",
}

// PortConfig controls how a Port is constructed.
type PortConfig struct {
	Driver Driver

	// Prefix namespaces keys on shared backends (e.g. redis).
	Prefix string

	// MemoryCleanupInterval controls in-process expired-entry sweeps.
	MemoryCleanupInterval time.Duration

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// NATSKeyValue is required when DriverNATS is used.
	NATSKeyValue NATSKeyValue

	// SQLDriverName and SQLDSN are required when DriverSQL is used.
	SQLDriverName string
	SQLDSN        string
	SQLTable      string

	// Dynamo settings apply when DriverDynamo is used. When DynamoClient
	// is nil a client is built from the region/endpoint settings.
	DynamoClient   DynamoAPI
	DynamoTable    string
	DynamoRegion   string
	DynamoEndpoint string
}

func (c PortConfig) withDefaults() PortConfig {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Prefix == "" {
		c.Prefix = defaultPrefix
	}
	if c.MemoryCleanupInterval <= 0 {
		c.MemoryCleanupInterval = defaultMemoryCleanupInterval
	}
	if c.SQLTable == "" {
		c.SQLTable = "kv_entries"
	}
	if c.DynamoTable == "" {
		c.DynamoTable = "kv_entries"
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = "us-east-1"
	}
	return c
}
