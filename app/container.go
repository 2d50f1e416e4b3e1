package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RezaEskandarii/gohire/client"
	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/db"
	"github.com/RezaEskandarii/gohire/internal/lock"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/message_broaker"
	"github.com/RezaEskandarii/gohire/internal/scheduling"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/internal/store/memory"
	"github.com/RezaEskandarii/gohire/internal/store/postgres"
	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultDispatchQueue = "gohire.operations"

// Container holds all application dependencies. It is the single source of truth
// for dependency injection and ensures connections and services are created once.
type Container struct {
	Config *config.Config
	Log    logrus.FieldLogger
	Clock  clock.Clock

	// Storage connections (created once, shared by all stores)
	DB    *sql.DB
	Redis redis.UniversalClient

	Operations   store.OperationStore
	Availability store.AvailabilityStore
	Interviews   store.InterviewStore
	Conflicts    store.ConflictStore
	Runs         store.SchedulingRunStore
	Recruitment  store.RecruitmentStore
	Users        store.UserStore

	// Infrastructure
	LockManager   lock.DistributedLockManager
	MessageBroker message_broaker.MessageBroker
	Notifier      client.Notifier

	// Scheduling engine
	Slots               *scheduling.SlotGenerator
	Detector            *scheduling.ConflictDetector
	Advisor             *scheduling.ResolutionAdvisor
	Scheduler           *scheduling.BulkScheduler
	Employers           *scheduling.EmployerAccess
	AvailabilityService *scheduling.AvailabilityService
	RunService          *scheduling.RunService

	// Bulk operations
	Executor *client.OperationExecutor
	Manager  *client.OperationManager
	Recovery *client.RecoveryManager

	ownsDB, ownsRedis bool
}

// NewContainer creates and wires all dependencies. Call it once per application lifecycle.
// Connections not injected through options are opened from cfg and closed by Close.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	opt := &containerConfig{}
	for _, o := range opts {
		o(opt)
	}

	c := &Container{
		Config: cfg,
		Log:    opt.log,
		Clock:  opt.clock,
		DB:     opt.db,
		Redis:  opt.redis,
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Log == nil {
		c.Log = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Instance: cfg.Instance})
	}

	if err := c.openConnections(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	c.createStores()
	c.LockManager = c.createLockManager()

	c.MessageBroker = opt.broker
	if c.MessageBroker == nil && cfg.MQDriver == config.RabbitMQ {
		broker, err := message_broaker.NewRabbitMQ(*cfg.RabbitMQConfig)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init rabbitmq: %w", err)
		}
		c.MessageBroker = broker
	}
	c.Notifier = c.createNotifier()

	c.Slots = scheduling.NewSlotGenerator(c.Availability, c.Interviews, c.Clock, c.Log.WithField("component", "slots"))
	c.Detector = scheduling.NewConflictDetector(c.Interviews)
	c.Advisor = scheduling.NewResolutionAdvisor(c.Conflicts, c.Slots, c.Detector, c.Clock, c.Log.WithField("component", "advisor"))
	c.Scheduler = scheduling.NewBulkScheduler(c.Slots, c.Detector, c.Advisor, c.Interviews, c.Recruitment, c.Runs, c.Clock, c.Log.WithField("component", "scheduler"))
	c.AvailabilityService = scheduling.NewAvailabilityService(c.Availability)
	c.Employers = scheduling.NewEmployerAccess(c.Recruitment)
	c.RunService = scheduling.NewRunService(c.Runs, c.Scheduler, c.Employers)

	if err := client.RegisterBuiltinHandlers(cfg.Handlers, client.HandlerDeps{
		Scheduler:    c.Scheduler,
		Interviews:   c.Interviews,
		Recruitment:  c.Recruitment,
		Availability: c.Availability,
		Notifier:     c.Notifier,
		Clock:        c.Clock,
	}); err != nil {
		c.Close()
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	execCfg := client.ExecutorConfig{
		ItemConcurrency:         cfg.ItemConcurrency,
		MaxConcurrentOperations: cfg.MaxConcurrentOperations,
	}
	if c.MessageBroker != nil && (opt.broker != nil || cfg.UseQueueWriter) {
		execCfg.Broker = c.MessageBroker
		execCfg.Queue = cfg.RabbitMQConfig.Queue
		if execCfg.Queue == "" {
			execCfg.Queue = defaultDispatchQueue
		}
	}
	c.Executor = client.NewOperationExecutor(c.Operations, cfg.Handlers, execCfg, c.Clock, c.Log.WithField("component", "executor"))
	c.Manager = client.NewOperationManager(c.Operations, cfg.Handlers, c.Executor, c.Clock, c.Log.WithField("component", "operations"))

	recovery, err := client.NewRecoveryManager(c.Operations, c.Executor, c.LockManager, cfg.RecoveryCron, cfg.StaleAfter, c.Clock, c.Log.WithField("component", "recovery"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init recovery: %w", err)
	}
	c.Recovery = recovery

	return c, nil
}

func (c *Container) openConnections(ctx context.Context) error {
	cfg := c.Config
	if cfg.StorageDriver == config.Postgres && c.DB == nil {
		conn, err := db.Open(ctx, cfg.PostgresConfig.ConnectionUrl)
		if err != nil {
			return err
		}
		c.DB, c.ownsDB = conn, true
	}

	if cfg.LockDriver == config.RedisLock && c.Redis == nil {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		c.Redis, c.ownsRedis = client, true
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
	}
	return nil
}

func (c *Container) createStores() {
	switch c.Config.StorageDriver {
	case config.Postgres:
		c.Operations = postgres.NewPostgresOperationStore(c.DB)
		c.Availability = postgres.NewPostgresAvailabilityStore(c.DB)
		c.Interviews = postgres.NewPostgresInterviewStore(c.DB)
		c.Conflicts = postgres.NewPostgresConflictStore(c.DB)
		c.Runs = postgres.NewPostgresSchedulingRunStore(c.DB)
		c.Recruitment = postgres.NewPostgresRecruitmentStore(c.DB)
		c.Users = postgres.NewPostgresUserStore(c.DB)
	default:
		c.Operations = memory.NewOperationStore(c.Clock)
		c.Availability = memory.NewAvailabilityStore(c.Clock)
		c.Interviews = memory.NewInterviewStore(c.Clock)
		c.Conflicts = memory.NewConflictStore(c.Clock)
		c.Runs = memory.NewSchedulingRunStore(c.Clock)
		c.Recruitment = memory.NewRecruitmentStore()
		c.Users = memory.NewUserStore()
	}
}

func (c *Container) createLockManager() lock.DistributedLockManager {
	switch c.Config.LockDriver {
	case config.PostgresLock:
		if c.DB != nil {
			return lock.NewPostgresDistributedLockManager(c.DB)
		}
	case config.RedisLock:
		return lock.NewRedisDistributedLockManager(c.Redis, 0)
	}
	return lock.NewLocalLockManager()
}

func (c *Container) createNotifier() client.Notifier {
	if c.MessageBroker != nil && c.Config.RabbitMQConfig.NotificationQueue != "" {
		return client.NewBrokerNotifier(c.MessageBroker, c.Config.RabbitMQConfig.NotificationQueue)
	}
	return client.NewLogNotifier(c.Log.WithField("component", "notifier"))
}

// Migrate applies the schema when the container runs on Postgres.
func (c *Container) Migrate(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}
	return db.Migrate(ctx, c.DB, c.LockManager, c.Log)
}

// EnsureAdmin creates the configured API user when it does not exist yet.
func (c *Container) EnsureAdmin(ctx context.Context) error {
	cfg := c.Config
	if cfg.AdminUserName == "" || cfg.AdminPassword == "" {
		return nil
	}
	user, err := c.Users.FindByUsername(ctx, cfg.AdminUserName)
	if err != nil {
		return fmt.Errorf("find admin user: %w", err)
	}
	if user != nil {
		return nil
	}
	if _, err := c.Users.Create(ctx, cfg.AdminUserName, cfg.AdminPassword); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	c.Log.WithField("username", cfg.AdminUserName).Info("admin user created")
	return nil
}

// Close stops the executor and releases the connections the container opened itself.
func (c *Container) Close() error {
	if c.Executor != nil {
		c.Executor.Shutdown()
	}
	var errs []error
	if c.MessageBroker != nil {
		errs = append(errs, c.MessageBroker.Close())
	}
	if c.ownsRedis && c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.ownsDB && c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
