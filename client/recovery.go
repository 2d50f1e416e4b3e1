package client

import (
	"context"
	"fmt"
	"time"

	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/constants"
	"github.com/RezaEskandarii/gohire/internal/lock"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/parser"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RecoveryManager re-dispatches operations whose executor stopped making progress:
// processing operations left behind by a crashed process and pending ones whose dispatch was lost.
type RecoveryManager struct {
	store      store.OperationStore
	executor   *OperationExecutor
	lock       lock.DistributedLockManager
	schedule   cron.Schedule
	staleAfter time.Duration
	clock      clock.Clock
	log        logrus.FieldLogger
}

func NewRecoveryManager(s store.OperationStore, executor *OperationExecutor, lockMgr lock.DistributedLockManager, cronExpr string, staleAfter time.Duration, clk clock.Clock, log logrus.FieldLogger) (*RecoveryManager, error) {
	schedule, err := parser.ParseCron(cronExpr)
	if err != nil {
		return nil, err
	}
	if staleAfter <= 0 {
		return nil, fmt.Errorf("stale threshold must be positive, got %s", staleAfter)
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &RecoveryManager{
		store:      s,
		executor:   executor,
		lock:       lockMgr,
		schedule:   schedule,
		staleAfter: staleAfter,
		clock:      clk,
		log:        logger.OrDiscard(log),
	}, nil
}

// Start runs a sweep at every tick of the cron schedule until ctx is done.
func (r *RecoveryManager) Start(ctx context.Context) error {
	r.log.Info("recovery sweep started")
	for {
		next := r.schedule.Next(r.clock.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			r.log.Info("recovery sweep stopped")
			return ctx.Err()
		case <-timer.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.WithError(err).Error("recovery sweep failed")
			}
		}
	}
}

// Sweep re-dispatches every stale operation not running in this process. Only the instance
// holding the recovery lock sweeps; the others return 0 immediately.
func (r *RecoveryManager) Sweep(ctx context.Context) (int, error) {
	acquired, err := r.lock.TryAcquire(ctx, constants.RecoveryLock)
	if err != nil {
		return 0, fmt.Errorf("acquire recovery lock: %w", err)
	}
	if !acquired {
		return 0, nil
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), constants.RecoveryLock); err != nil {
			r.log.WithError(err).Warn("failed to release recovery lock")
		}
	}()

	ids, err := r.store.FindStalled(ctx, r.clock.Now().Add(-r.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("find stalled operations: %w", err)
	}

	recovered := 0
	for _, id := range ids {
		if r.executor.IsRunning(id) {
			continue
		}
		log := r.log.WithField("operation_id", id)

		reset, err := r.store.ResetProcessingItems(ctx, id)
		if err != nil {
			log.WithError(err).Warn("failed to reset items")
			continue
		}
		if err := r.executor.DispatchResume(ctx, id); err != nil {
			log.WithError(err).Warn("failed to re-dispatch operation")
			continue
		}
		log.WithField("reset_items", reset).Info("operation recovered")
		recovered++
	}
	return recovered, nil
}
