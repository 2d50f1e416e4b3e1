package jobmanager

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/RezaEskandarii/gohire/app"
	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/RezaEskandarii/gohire/web"
	"golang.org/x/sync/errgroup"
)

// New initializes gohire from cfg and returns the wired container.
//
// It performs the following steps:
//  1. Builds the container: storage, lock manager, broker, scheduling engine, executor.
//  2. Applies the Postgres migrations under the migration lock.
//  3. Creates the API admin user when credentials are configured.
//
// The caller owns the container and must Close it.
func New(ctx context.Context, cfg *config.Config, opts ...app.ContainerOption) (*app.Container, error) {
	c, err := app.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	c.Log.WithField("gomaxprocs", runtime.GOMAXPROCS(0)).Info("gohire starting")

	if err := c.Migrate(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := c.EnsureAdmin(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Run starts the queue consumer, the recovery sweep and, when enabled, the API server.
// It blocks until ctx is done or one of them fails.
func Run(ctx context.Context, c *app.Container) error {
	g, gctx := errgroup.WithContext(ctx)

	if err := c.Executor.StartQueueConsumer(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		return ignoreCanceled(c.Recovery.Start(gctx))
	})

	if c.Config.APIEnabled {
		router := web.NewRouteHandler(web.Services{
			Operations:   c.Manager,
			Runs:         c.RunService,
			Slots:        c.Slots,
			Detector:     c.Detector,
			Advisor:      c.Advisor,
			Employers:    c.Employers,
			Availability: c.AvailabilityService,
			Users:        c.Users,
			Clock:        c.Clock,
		}, c.Config.SecretKey, c.Config.SecretKey != "", c.Config.APIPort, c.Log.WithField("component", "api"))

		g.Go(func() error {
			return router.Serve(gctx)
		})
	}

	err := g.Wait()
	c.Log.Info("gohire stopped")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
