package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/message_broaker"
	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ExecutorConfig tunes an OperationExecutor. Broker and Queue are only set when operation ids
// are dispatched through the message queue instead of in-process goroutines.
type ExecutorConfig struct {
	ItemConcurrency         int
	MaxConcurrentOperations int
	Broker                  message_broaker.MessageBroker
	Queue                   string
}

// dispatchMessage is the payload published to the operations queue.
type dispatchMessage struct {
	OperationID int64 `json:"operation_id"`
	Resume      bool  `json:"resume,omitempty"`
}

// OperationExecutor drives operations from pending to a terminal state, one handler call per item.
type OperationExecutor struct {
	store           store.OperationStore
	handlers        *config.HandlerRegistry
	broker          message_broaker.MessageBroker
	queue           string
	itemConcurrency int
	admission       *semaphore.Weighted
	clock           clock.Clock
	log             logrus.FieldLogger

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.Mutex
	running map[int64]context.CancelFunc
}

func NewOperationExecutor(s store.OperationStore, handlers *config.HandlerRegistry, cfg ExecutorConfig, clk clock.Clock, log logrus.FieldLogger) *OperationExecutor {
	if clk == nil {
		clk = clock.Real()
	}
	if cfg.ItemConcurrency < 1 {
		cfg.ItemConcurrency = config.DefaultItemConcurrency
	}
	if cfg.MaxConcurrentOperations < 1 {
		cfg.MaxConcurrentOperations = config.DefaultMaxConcurrentOperations
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &OperationExecutor{
		store:           s,
		handlers:        handlers,
		broker:          cfg.Broker,
		queue:           cfg.Queue,
		itemConcurrency: cfg.ItemConcurrency,
		admission:       semaphore.NewWeighted(int64(cfg.MaxConcurrentOperations)),
		clock:           clk,
		log:             logger.OrDiscard(log),
		baseCtx:         ctx,
		baseCancel:      cancel,
		running:         make(map[int64]context.CancelFunc),
	}
}

// Dispatch starts the operation in the background and returns immediately.
// With a queue configured the id is published and executed by whichever consumer receives it.
func (e *OperationExecutor) Dispatch(ctx context.Context, operationID int64) error {
	return e.dispatch(ctx, dispatchMessage{OperationID: operationID})
}

// DispatchResume is Dispatch for an operation that may already be processing.
func (e *OperationExecutor) DispatchResume(ctx context.Context, operationID int64) error {
	return e.dispatch(ctx, dispatchMessage{OperationID: operationID, Resume: true})
}

func (e *OperationExecutor) dispatch(ctx context.Context, msg dispatchMessage) error {
	if e.broker != nil {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal dispatch message: %w", err)
		}
		if err := e.broker.Publish(ctx, e.queue, payload); err != nil {
			return fmt.Errorf("failed to publish operation %d: %w", msg.OperationID, err)
		}
		return nil
	}

	e.spawn(msg)
	return nil
}

func (e *OperationExecutor) spawn(msg dispatchMessage) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.execute(e.baseCtx, msg.OperationID, msg.Resume); err != nil {
			e.log.WithField("operation_id", msg.OperationID).WithError(err).Error("operation execution failed")
		}
	}()
}

// StartQueueConsumer executes the operation ids arriving on the dispatch queue until ctx is done.
// It is a no-op when no broker is configured.
func (e *OperationExecutor) StartQueueConsumer(ctx context.Context) error {
	if e.broker == nil {
		return nil
	}

	msgCh, err := e.broker.Consume(ctx, e.queue)
	if err != nil {
		return fmt.Errorf("failed to start consuming operations: %w", err)
	}

	e.log.WithField("queue", e.queue).Info("operation queue consumer started")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-msgCh:
				if !ok {
					e.log.Warn("operation queue channel closed")
					return
				}
				msg, err := decodeDispatchMessage(raw)
				if err != nil {
					e.log.WithError(err).Warn("dropping malformed dispatch message")
					continue
				}
				e.spawn(msg)
			}
		}
	}()
	return nil
}

// decodeDispatchMessage accepts the JSON payload or a bare operation id.
func decodeDispatchMessage(raw []byte) (dispatchMessage, error) {
	var msg dispatchMessage
	if err := json.Unmarshal(raw, &msg); err == nil && msg.OperationID > 0 {
		return msg, nil
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return msg, fmt.Errorf("invalid dispatch message %q", raw)
	}
	return dispatchMessage{OperationID: id}, nil
}

// Execute runs the operation synchronously. An operation that is no longer pending is left alone.
func (e *OperationExecutor) Execute(ctx context.Context, operationID int64) error {
	return e.execute(ctx, operationID, false)
}

// Resume continues a stalled processing (or never started) operation from its pending items.
func (e *OperationExecutor) Resume(ctx context.Context, operationID int64) error {
	return e.execute(ctx, operationID, true)
}

// IsRunning reports whether this process is executing, or waiting to execute, the operation.
func (e *OperationExecutor) IsRunning(operationID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[operationID]
	return ok
}

// Cancel interrupts the in-process execution of an operation, if any, so that running
// handlers observe ctx.Done(). The ledger status is changed by the caller.
func (e *OperationExecutor) Cancel(operationID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cancel, ok := e.running[operationID]
	if ok {
		cancel()
	}
	return ok
}

// Wait blocks until every dispatched execution has returned.
func (e *OperationExecutor) Wait() {
	e.wg.Wait()
}

// Shutdown stops background executions and waits for them. Interrupted operations stay
// processing and are picked up by the recovery sweep.
func (e *OperationExecutor) Shutdown() {
	e.baseCancel()
	e.wg.Wait()
}

func (e *OperationExecutor) track(operationID int64, cancel context.CancelFunc) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.running[operationID]; ok {
		return false
	}
	e.running[operationID] = cancel
	return true
}

func (e *OperationExecutor) untrack(operationID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, operationID)
}

func (e *OperationExecutor) execute(ctx context.Context, operationID int64, resume bool) error {
	log := e.log.WithField("operation_id", operationID)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !e.track(operationID, cancel) {
		log.Debug("operation already running in this process")
		return nil
	}
	defer e.untrack(operationID)

	if err := e.admission.Acquire(runCtx, 1); err != nil {
		if ctx.Err() == nil {
			// cancelled while waiting for admission
			return nil
		}
		return err
	}
	defer e.admission.Release(1)

	op, err := e.store.FindByID(ctx, operationID)
	if err != nil {
		return fmt.Errorf("load operation %d: %w", operationID, err)
	}
	if op == nil {
		return custom_errors.NewNotFoundError("operation", operationID)
	}

	now := e.clock.Now()
	var started bool
	if resume {
		started, err = e.store.Resume(ctx, operationID, now)
	} else {
		started, err = e.store.MarkProcessing(ctx, operationID, now)
	}
	if err != nil {
		return fmt.Errorf("start operation %d: %w", operationID, err)
	}
	if !started {
		log.WithField("status", op.Status).Debug("operation not startable, skipping")
		return nil
	}

	startedAt := now
	if resume && op.StartedAt != nil {
		startedAt = *op.StartedAt
	}
	log.WithField("type", op.OperationType).Info("operation started")

	cancelled, err := e.run(ctx, runCtx, op)
	if err != nil {
		if ctx.Err() != nil {
			// shutdown: leave it processing for recovery
			return ctx.Err()
		}
		e.fail(ctx, operationID, err)
		return err
	}
	if cancelled {
		if _, err := e.store.SkipPendingItems(ctx, operationID); err != nil {
			return fmt.Errorf("skip pending items of operation %d: %w", operationID, err)
		}
		log.Info("operation cancelled")
		return nil
	}

	return e.complete(ctx, operationID, startedAt)
}

// run processes the pending items in creation order. It reports whether cancellation was observed.
func (e *OperationExecutor) run(ctx, runCtx context.Context, op *types.Operation) (bool, error) {
	params, err := types.DecodeOperationParams(op.OperationType, op.Parameters)
	if err != nil {
		return false, err
	}
	handler, err := e.handlers.Get(op.OperationType.String())
	if err != nil {
		return false, err
	}

	items, err := e.store.ListPendingItems(ctx, op.ID)
	if err != nil {
		return false, fmt.Errorf("list pending items: %w", err)
	}

	// slots is taken before the status poll so that, with one slot, the poll
	// happens after the previous item has fully finished
	slots := semaphore.NewWeighted(int64(e.itemConcurrency))
	itemCtx, stop := context.WithCancel(runCtx)
	defer stop()
	var g errgroup.Group

	cancelled := false
	for _, item := range items {
		if err := slots.Acquire(itemCtx, 1); err != nil {
			break
		}
		if itemCtx.Err() != nil {
			slots.Release(1)
			break
		}

		status, err := e.store.GetStatus(ctx, op.ID)
		if err != nil {
			slots.Release(1)
			stop()
			_ = g.Wait()
			return false, fmt.Errorf("read operation status: %w", err)
		}
		if status == state.OperationCancelled {
			slots.Release(1)
			cancelled = true
			break
		}

		g.Go(func() error {
			err := e.processItem(ctx, itemCtx, op, params, handler, item)
			if err != nil {
				stop()
			}
			slots.Release(1)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return false, err
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if !cancelled && runCtx.Err() != nil {
		// interrupted through Cancel; confirm against the ledger
		status, err := e.store.GetStatus(ctx, op.ID)
		if err != nil {
			return false, fmt.Errorf("read operation status: %w", err)
		}
		cancelled = status == state.OperationCancelled
	}
	return cancelled, nil
}

// processItem returns only ledger errors. Handler errors and panics fail the item.
func (e *OperationExecutor) processItem(ctx, itemCtx context.Context, op *types.Operation, params types.OperationParams, handler config.ItemHandler, item types.OperationItem) error {
	if itemCtx.Err() != nil {
		return nil
	}
	log := e.log.WithFields(logrus.Fields{"operation_id": op.ID, "item_id": item.ID, "target_id": item.TargetID})

	claimed, err := e.store.MarkItemProcessing(ctx, item.ID, e.clock.Now())
	if err != nil {
		return fmt.Errorf("mark item %d processing: %w", item.ID, err)
	}
	if !claimed {
		return nil
	}

	herr := safeHandle(itemCtx, handler, op, params, item)
	if herr != nil {
		log.WithError(herr).Warn("item failed")
	}
	if _, err := e.store.FinishItem(ctx, op.ID, item.ID, e.clock.Now(), herr); err != nil {
		return fmt.Errorf("record item %d: %w", item.ID, err)
	}
	return nil
}

func safeHandle(ctx context.Context, h config.ItemHandler, op *types.Operation, params types.OperationParams, item types.OperationItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, op, params, item)
}

func (e *OperationExecutor) complete(ctx context.Context, operationID int64, startedAt time.Time) error {
	op, err := e.store.FindByID(ctx, operationID)
	if err != nil {
		e.fail(ctx, operationID, err)
		return err
	}
	if op == nil {
		return custom_errors.NewNotFoundError("operation", operationID)
	}

	summary, err := json.Marshal(types.OperationSummary{
		Processed: op.ProcessedCount,
		Succeeded: op.SuccessCount,
		Failed:    op.FailedCount,
		Skipped:   op.TargetCount - op.ProcessedCount,
	})
	if err != nil {
		return err
	}

	completedAt := e.clock.Now()
	elapsed := completedAt.Sub(startedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	ok, err := e.store.Complete(ctx, operationID, completedAt, elapsed, string(summary))
	if err != nil {
		e.fail(ctx, operationID, err)
		return fmt.Errorf("complete operation %d: %w", operationID, err)
	}

	log := e.log.WithFields(logrus.Fields{
		"operation_id": operationID,
		"processed":    op.ProcessedCount,
		"succeeded":    op.SuccessCount,
		"failed":       op.FailedCount,
	})
	if !ok {
		log.Info("operation reached a terminal state before completion")
		return nil
	}
	log.Info("operation completed")
	return nil
}

func (e *OperationExecutor) fail(ctx context.Context, operationID int64, cause error) {
	log := e.log.WithField("operation_id", operationID).WithError(cause)
	ok, err := e.store.Fail(context.WithoutCancel(ctx), operationID, e.clock.Now(), cause.Error())
	switch {
	case err != nil:
		log.WithField("fail_error", err).Error("failed to record operation failure")
	case ok:
		log.Error("operation failed")
		if _, err := e.store.SkipPendingItems(context.WithoutCancel(ctx), operationID); err != nil {
			log.WithField("skip_error", err).Warn("failed to skip pending items")
		}
	}
}
