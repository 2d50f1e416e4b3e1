package app

import (
	"database/sql"

	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/message_broaker"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ContainerOption configures Container creation. Used for testing and customization.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	db     *sql.DB
	redis  redis.UniversalClient
	broker message_broaker.MessageBroker
	clock  clock.Clock
	log    logrus.FieldLogger
}

// WithDB injects a database connection instead of opening one from the config.
func WithDB(db *sql.DB) ContainerOption {
	return func(c *containerConfig) {
		c.db = db
	}
}

// WithRedis injects a Redis client for the redis lock driver.
func WithRedis(client redis.UniversalClient) ContainerOption {
	return func(c *containerConfig) {
		c.redis = client
	}
}

// WithBroker injects the dispatch broker, enabling queue dispatch without RabbitMQ.
func WithBroker(b message_broaker.MessageBroker) ContainerOption {
	return func(c *containerConfig) {
		c.broker = b
	}
}

func WithClock(clk clock.Clock) ContainerOption {
	return func(c *containerConfig) {
		c.clock = clk
	}
}

func WithLogger(log logrus.FieldLogger) ContainerOption {
	return func(c *containerConfig) {
		c.log = log
	}
}
