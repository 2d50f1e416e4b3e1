package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/spf13/viper"
)

// loadConfigFile enables GOHIRE_* environment variables and reads the optional config file.
// Nested keys map to variables with dots replaced by underscores, e.g. GOHIRE_POSTGRES_URL.
func loadConfigFile(v *viper.Viper, path string) error {
	setDefaults(v)
	v.SetEnvPrefix("gohire")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("gohire")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("instance", "gohire")
	v.SetDefault("storage", config.DefaultStorageDriver.String())
	v.SetDefault("lock", config.DefaultLockDriver.String())
	v.SetDefault("item_concurrency", config.DefaultItemConcurrency)
	v.SetDefault("max_concurrent_operations", config.DefaultMaxConcurrentOperations)
	v.SetDefault("recovery.cron", config.DefaultRecoveryCron)
	v.SetDefault("recovery.stale_after", config.DefaultStaleAfter)
	v.SetDefault("api.port", config.DefaultAPIPort)
	v.SetDefault("log.level", config.DefaultLogLevel)
	v.SetDefault("log.format", config.DefaultLogFormat)
	v.SetDefault("rabbitmq.queue", "gohire.operations")
}

// buildConfig maps the viper keys onto config options.
func buildConfig(v *viper.Viper) (*config.Config, error) {
	storage, ok := config.ParseStorageDriver(v.GetString("storage"))
	if !ok {
		return nil, fmt.Errorf("unknown storage driver %q", v.GetString("storage"))
	}
	lockDriver, ok := config.ParseLockDriver(v.GetString("lock"))
	if !ok {
		return nil, fmt.Errorf("unknown lock driver %q", v.GetString("lock"))
	}

	opts := []config.Option{
		config.WithStorageDriver(storage),
		config.WithLockDriver(lockDriver),
		config.WithItemConcurrency(v.GetInt("item_concurrency")),
		config.WithMaxConcurrentOperations(v.GetInt("max_concurrent_operations")),
		config.WithRecovery(v.GetString("recovery.cron"), v.GetDuration("recovery.stale_after")),
		config.WithLogging(v.GetString("log.level"), v.GetString("log.format")),
	}
	if storage == config.Postgres {
		opts = append(opts, config.WithPostgresConfig(config.PostgresConfig{ConnectionUrl: v.GetString("postgres.url")}))
	}
	if lockDriver == config.RedisLock {
		opts = append(opts, config.WithRedisConfig(config.RedisConfig{
			Address:  v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		}))
	}
	if url := v.GetString("rabbitmq.url"); url != "" {
		opts = append(opts,
			config.WithRabbitMQConfig(config.RabbitMQConfig{
				URL:               url,
				Exchange:          v.GetString("rabbitmq.exchange"),
				Queue:             v.GetString("rabbitmq.queue"),
				NotificationQueue: v.GetString("rabbitmq.notification_queue"),
			}),
			config.UseRabbitMQueueWriter(v.GetBool("rabbitmq.dispatch")),
		)
	}
	if secret := v.GetString("api.secret"); secret != "" {
		opts = append(opts, config.WithAPIConfig(v.GetString("api.username"), v.GetString("api.password"), secret, v.GetUint("api.port")))
	}

	return config.NewConfig(v.GetString("instance"), opts...)
}
