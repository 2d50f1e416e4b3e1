package client

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/constants"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/sirupsen/logrus"
)

// OperationManager is the owner-scoped entry point to the job ledger.
type OperationManager struct {
	store    store.OperationStore
	handlers *config.HandlerRegistry
	executor *OperationExecutor
	clock    clock.Clock
	log      logrus.FieldLogger
}

func NewOperationManager(s store.OperationStore, handlers *config.HandlerRegistry, executor *OperationExecutor, clk clock.Clock, log logrus.FieldLogger) *OperationManager {
	if clk == nil {
		clk = clock.Real()
	}
	return &OperationManager{
		store:    s,
		handlers: handlers,
		executor: executor,
		clock:    clk,
		log:      logger.OrDiscard(log),
	}
}

// CreateOperation validates and persists an operation with one item per target, then dispatches
// it for background execution. The call does not wait for any item to be processed.
func (m *OperationManager) CreateOperation(ctx context.Context, owner string, req types.CreateOperationRequest) (*types.CreateOperationResult, error) {
	if err := m.validate(owner, req); err != nil {
		return nil, err
	}

	op := &types.Operation{
		Owner:          owner,
		OperationType:  req.OperationType,
		TargetType:     req.TargetType,
		Status:         state.OperationPending,
		TargetCount:    len(req.TargetIDs),
		TargetCriteria: req.TargetCriteria,
		Parameters:     req.OperationParams,
	}
	id, err := m.store.Create(ctx, op, req.TargetIDs)
	if err != nil {
		return nil, fmt.Errorf("create operation: %w", err)
	}

	log := m.log.WithFields(logrus.Fields{"operation_id": id, "type": req.OperationType, "targets": len(req.TargetIDs)})
	if m.executor != nil {
		if err := m.executor.Dispatch(ctx, id); err != nil {
			// the operation stays pending and is picked up by the recovery sweep
			log.WithError(err).Warn("dispatch failed")
		}
	}
	log.Info("operation created")

	return &types.CreateOperationResult{Success: true, OperationID: id, TargetCount: len(req.TargetIDs)}, nil
}

func (m *OperationManager) validate(owner string, req types.CreateOperationRequest) error {
	verr := &custom_errors.ValidationError{}
	if owner == "" {
		verr.Add(fmt.Errorf("owner is required"))
	}
	if len(req.TargetIDs) == 0 {
		verr.Add(fmt.Errorf("target_ids must not be empty"))
	}
	if !req.OperationType.IsKnown() {
		verr.Add(fmt.Errorf("unknown operation type %q", req.OperationType))
	}
	if verr.HasError() {
		return verr
	}

	if err := types.ValidateStruct(req); err != nil {
		verr.Add(err)
	}
	if want := req.OperationType.TargetType(); req.TargetType != want {
		verr.Add(fmt.Errorf("operation %s expects target type %s, got %q", req.OperationType, want, req.TargetType))
	}
	if !m.handlers.Exists(req.OperationType.String()) {
		verr.Add(fmt.Errorf("no handler registered for %s", req.OperationType))
	}
	if _, err := types.DecodeOperationParams(req.OperationType, req.OperationParams); err != nil {
		verr.Add(err)
	}
	if verr.HasError() {
		return verr
	}
	return nil
}

// GetOperationDetails returns the operation and up to the first 100 of its items.
func (m *OperationManager) GetOperationDetails(ctx context.Context, owner string, id int64) (*types.OperationDetails, error) {
	op, err := m.findOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	items, err := m.store.ListItems(ctx, id, constants.MaxDetailItems)
	if err != nil {
		return nil, fmt.Errorf("list items of operation %d: %w", id, err)
	}
	return &types.OperationDetails{Operation: *op, Items: items}, nil
}

// CancelOperation cancels a pending or processing operation and skips its pending items.
// Terminal operations are rejected with a StateError.
func (m *OperationManager) CancelOperation(ctx context.Context, owner string, id int64) (*types.CancelOperationResult, error) {
	op, err := m.findOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if op.Status.IsTerminal() {
		return nil, custom_errors.NewStateError("operation", id, op.Status.String(), "cancel")
	}

	ok, err := m.store.Cancel(ctx, id, m.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("cancel operation %d: %w", id, err)
	}
	if !ok {
		// finished between the read and the update
		status, err := m.store.GetStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, custom_errors.NewStateError("operation", id, status.String(), "cancel")
	}

	if m.executor != nil {
		m.executor.Cancel(id)
	}
	m.log.WithField("operation_id", id).Info("operation cancelled")
	return &types.CancelOperationResult{Success: true, OperationID: id}, nil
}

// GetOperationStats aggregates the owner's operations created in [periodStart, periodEnd].
func (m *OperationManager) GetOperationStats(ctx context.Context, owner string, periodStart, periodEnd time.Time) (*types.OperationStats, error) {
	if periodEnd.Before(periodStart) {
		return nil, custom_errors.NewValidationError("period end must not be before period start")
	}

	agg, err := m.store.Aggregate(ctx, owner, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("aggregate operations: %w", err)
	}

	stats := &types.OperationStats{
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		ByStatus:        make(map[state.OperationStatus]int, len(state.AllOperationStatuses)),
		ProcessedItems:  agg.ProcessedItems,
		SuccessfulItems: agg.SuccessfulItems,
	}
	for _, s := range state.AllOperationStatuses {
		stats.ByStatus[s] = agg.ByStatus[s]
		stats.TotalOperations += agg.ByStatus[s]
	}
	stats.SuccessRate = percentage(stats.ByStatus[state.OperationCompleted], stats.TotalOperations)
	stats.ItemSuccessRate = percentage(agg.SuccessfulItems, agg.ProcessedItems)
	if agg.TimedOperations > 0 {
		stats.AverageProcessingTimeMs = int64(math.Round(float64(agg.TotalProcessingTimeMs) / float64(agg.TimedOperations)))
	}
	return stats, nil
}

// ListOperations pages through the owner's operations, newest first. An empty status lists all.
func (m *OperationManager) ListOperations(ctx context.Context, owner string, page, pageSize int, status state.OperationStatus) (*types.PaginationResult[types.Operation], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxDetailItems {
		pageSize = 20
	}
	return m.store.List(ctx, owner, page, pageSize, status)
}

func (m *OperationManager) findOwned(ctx context.Context, owner string, id int64) (*types.Operation, error) {
	op, err := m.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find operation %d: %w", id, err)
	}
	if op == nil || op.Owner != owner {
		return nil, custom_errors.NewNotFoundError("operation", id)
	}
	return op, nil
}

// percentage returns round(part/total*100) clamped to [0, 100], or 0 when total is 0.
func percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(part) / float64(total) * 100))
	return max(0, min(100, p))
}
