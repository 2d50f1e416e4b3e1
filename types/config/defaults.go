package config

import "time"

const (
	DefaultStorageDriver           = Postgres
	DefaultLockDriver              = PostgresLock
	DefaultItemConcurrency         = 1
	DefaultMaxConcurrentOperations = 10
	DefaultRecoveryCron            = "*/5 * * * *"
	DefaultStaleAfter              = 10 * time.Minute
	DefaultAPIPort                 = 8080
	DefaultLogLevel                = "info"
	DefaultLogFormat               = "text"
)
