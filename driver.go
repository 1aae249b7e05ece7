package kvstash

// Driver identifies a port backend.
type Driver string

const (
	DriverUnavailable Driver = "unavailable"
	DriverNull        Driver = "null"
	DriverMemory      Driver = "memory"
	DriverRedis       Driver = "redis"
	DriverNATS        Driver = "nats"
	DriverSQL         Driver = "sql"
	DriverDynamo      Driver = "dynamodb"
)
