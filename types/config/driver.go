package config

type StorageDriver int

const (
	Postgres StorageDriver = iota + 1
	Memory
)

// String converts the StorageDriver enum to a human-readable string.
func (d StorageDriver) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case Memory:
		return "memory"
	}
	return "unknown"
}

func ParseStorageDriver(s string) (StorageDriver, bool) {
	switch s {
	case "postgres":
		return Postgres, true
	case "memory":
		return Memory, true
	}
	return 0, false
}

type LockDriver int

const (
	PostgresLock LockDriver = iota + 1
	RedisLock
	LocalLock
)

func (d LockDriver) String() string {
	switch d {
	case PostgresLock:
		return "postgres"
	case RedisLock:
		return "redis"
	case LocalLock:
		return "local"
	}
	return "unknown"
}

func ParseLockDriver(s string) (LockDriver, bool) {
	switch s {
	case "postgres":
		return PostgresLock, true
	case "redis":
		return RedisLock, true
	case "local":
		return LocalLock, true
	}
	return 0, false
}

type MessageQueueDriver int

const (
	RabbitMQ MessageQueueDriver = iota + 1
)

func (d MessageQueueDriver) String() string {
	switch d {
	case RabbitMQ:
		return "rabbitmq"
	default:
		return "unknown"
	}
}
