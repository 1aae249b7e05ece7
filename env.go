package kvstash

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// envConfig mirrors PortConfig for environment parsing.
type envConfig struct {
	Driver string `env:"KVSTASH_DRIVER" envDefault:"memory"`
	Prefix string `env:"KVSTASH_PREFIX"`

	RedisAddr     string `env:"KVSTASH_REDIS_ADDR"`
	RedisPassword string `env:"KVSTASH_REDIS_PASSWORD"`
	RedisDB       int    `env:"KVSTASH_REDIS_DB"`

	SQLDriver string `env:"KVSTASH_SQL_DRIVER"`
	SQLDSN    string `env:"KVSTASH_SQL_DSN"`
	SQLTable  string `env:"KVSTASH_SQL_TABLE"`

	DynamoTable    string `env:"KVSTASH_DYNAMO_TABLE"`
	DynamoRegion   string `env:"KVSTASH_DYNAMO_REGION"`
	DynamoEndpoint string `env:"KVSTASH_DYNAMO_ENDPOINT"`
}

// PortConfigFromEnv builds a PortConfig from KVSTASH_* environment
// variables. It only assembles configuration: callers still construct the
// port explicitly with NewPort and inject it into each component, so the
// binding never leaks in through ambient lookups at call time.
//
// When KVSTASH_REDIS_ADDR is set a redis client is built from it; NATS and
// pre-built Dynamo clients cannot be expressed as environment values and
// must be supplied via options.
func PortConfigFromEnv() (PortConfig, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return PortConfig{}, fmt.Errorf("kvstash: parse environment: %w", err)
	}
	cfg := PortConfig{
		Driver:         Driver(ec.Driver),
		Prefix:         ec.Prefix,
		SQLDriverName:  ec.SQLDriver,
		SQLDSN:         ec.SQLDSN,
		SQLTable:       ec.SQLTable,
		DynamoTable:    ec.DynamoTable,
		DynamoRegion:   ec.DynamoRegion,
		DynamoEndpoint: ec.DynamoEndpoint,
	}
	if ec.RedisAddr != "" {
		cfg.RedisClient = redis.NewClient(&redis.Options{
			Addr:     ec.RedisAddr,
			Password: ec.RedisPassword,
			DB:       ec.RedisDB,
		})
	}
	return cfg, nil
}
