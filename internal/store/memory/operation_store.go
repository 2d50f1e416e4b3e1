// Package memory provides in-process stores for the memory storage driver and for tests.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

type OperationStore struct {
	mu         sync.RWMutex
	clock      clock.Clock
	operations map[int64]*types.Operation
	items      map[int64]*types.OperationItem
	itemIDs    map[int64][]int64 // operation id -> item ids in creation order
	nextOpID   int64
	nextItemID int64
}

func NewOperationStore(c clock.Clock) *OperationStore {
	if c == nil {
		c = clock.Real()
	}
	return &OperationStore{
		clock:      c,
		operations: make(map[int64]*types.Operation),
		items:      make(map[int64]*types.OperationItem),
		itemIDs:    make(map[int64][]int64),
	}
}

var _ store.OperationStore = (*OperationStore)(nil)

func (s *OperationStore) Create(_ context.Context, op *types.Operation, targetIDs []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.nextOpID++
	stored := *op
	stored.ID = s.nextOpID
	stored.Status = state.OperationPending
	stored.TargetCount = len(targetIDs)
	stored.ProcessedCount, stored.SuccessCount, stored.FailedCount = 0, 0, 0
	stored.CreatedAt, stored.UpdatedAt = now, now
	s.operations[stored.ID] = &stored

	ids := make([]int64, 0, len(targetIDs))
	for _, target := range targetIDs {
		s.nextItemID++
		s.items[s.nextItemID] = &types.OperationItem{
			ID:          s.nextItemID,
			OperationID: stored.ID,
			TargetID:    target,
			TargetType:  stored.TargetType,
			Status:      state.ItemPending,
			CreatedAt:   now,
		}
		ids = append(ids, s.nextItemID)
	}
	s.itemIDs[stored.ID] = ids
	return stored.ID, nil
}

func (s *OperationStore) FindByID(_ context.Context, id int64) (*types.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.operations[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (s *OperationStore) GetStatus(_ context.Context, id int64) (state.OperationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.operations[id]
	if !ok {
		return "", custom_errors.NewNotFoundError("operation", id)
	}
	return op.Status, nil
}

func (s *OperationStore) List(_ context.Context, owner string, page, pageSize int, status state.OperationStatus) (*types.PaginationResult[types.Operation], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	s.mu.RLock()
	var matched []types.Operation
	for _, op := range s.operations {
		if op.Owner == owner && (status == "" || op.Status == status) {
			matched = append(matched, *op)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	return &types.PaginationResult[types.Operation]{
		Items:           matched[start:end],
		TotalItems:      total,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}, nil
}

func (s *OperationStore) ListItems(_ context.Context, operationID int64, limit int) ([]types.OperationItem, error) {
	return s.collectItems(operationID, limit, func(*types.OperationItem) bool { return true }), nil
}

func (s *OperationStore) ListPendingItems(_ context.Context, operationID int64) ([]types.OperationItem, error) {
	return s.collectItems(operationID, 0, func(it *types.OperationItem) bool {
		return it.Status == state.ItemPending
	}), nil
}

func (s *OperationStore) MarkProcessing(_ context.Context, id int64, startedAt time.Time) (bool, error) {
	return s.updateOperation(id, func(op *types.Operation) bool {
		if op.Status != state.OperationPending {
			return false
		}
		op.Status = state.OperationProcessing
		op.StartedAt = &startedAt
		op.UpdatedAt = startedAt
		return true
	}), nil
}

func (s *OperationStore) Resume(_ context.Context, id int64, at time.Time) (bool, error) {
	return s.updateOperation(id, func(op *types.Operation) bool {
		if op.Status != state.OperationPending && op.Status != state.OperationProcessing {
			return false
		}
		op.Status = state.OperationProcessing
		if op.StartedAt == nil {
			op.StartedAt = &at
		}
		op.UpdatedAt = at
		return true
	}), nil
}

func (s *OperationStore) MarkItemProcessing(_ context.Context, itemID int64, _ time.Time) (bool, error) {
	return s.updateItem(itemID, state.ItemPending, func(it *types.OperationItem) {
		it.Status = state.ItemProcessing
	}), nil
}

func (s *OperationStore) FinishItem(_ context.Context, operationID, itemID int64, at time.Time, cause error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[itemID]
	if !ok || it.OperationID != operationID || it.Status != state.ItemProcessing {
		return false, nil
	}
	op, ok := s.operations[operationID]
	if !ok {
		return false, nil
	}

	it.ProcessedAt = &at
	op.ProcessedCount++
	if cause == nil {
		it.Status = state.ItemCompleted
		op.SuccessCount++
	} else {
		msg := cause.Error()
		it.Status = state.ItemFailed
		it.ErrorMessage = &msg
		op.FailedCount++
	}
	op.UpdatedAt = at
	return true, nil
}

func (s *OperationStore) Complete(_ context.Context, id int64, completedAt time.Time, processingTimeMs int64, summary string) (bool, error) {
	return s.updateOperation(id, func(op *types.Operation) bool {
		if op.Status != state.OperationProcessing {
			return false
		}
		op.Status = state.OperationCompleted
		op.CompletedAt = &completedAt
		op.UpdatedAt = completedAt
		op.ProcessingTimeMs = &processingTimeMs
		op.ResultSummary = &summary
		return true
	}), nil
}

func (s *OperationStore) Fail(_ context.Context, id int64, completedAt time.Time, errSummary string) (bool, error) {
	return s.updateOperation(id, func(op *types.Operation) bool {
		if op.Status.IsTerminal() {
			return false
		}
		op.Status = state.OperationFailed
		op.CompletedAt = &completedAt
		op.UpdatedAt = completedAt
		op.ErrorSummary = &errSummary
		return true
	}), nil
}

func (s *OperationStore) Cancel(_ context.Context, id int64, cancelledAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operations[id]
	if !ok || !state.IsValidOperationTransition(op.Status, state.OperationCancelled) {
		return false, nil
	}
	op.Status = state.OperationCancelled
	op.CancelledAt = &cancelledAt
	op.UpdatedAt = cancelledAt
	s.skipPendingLocked(id)
	return true, nil
}

func (s *OperationStore) SkipPendingItems(_ context.Context, operationID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipPendingLocked(operationID), nil
}

func (s *OperationStore) ResetProcessingItems(_ context.Context, operationID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, itemID := range s.itemIDs[operationID] {
		if it := s.items[itemID]; it.Status == state.ItemProcessing {
			it.Status = state.ItemPending
			n++
		}
	}
	return n, nil
}

func (s *OperationStore) FindStalled(_ context.Context, olderThan time.Time) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, op := range s.operations {
		if !op.Status.IsTerminal() && op.UpdatedAt.Before(olderThan) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *OperationStore) Aggregate(_ context.Context, owner string, from, to time.Time) (*types.OperationAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := &types.OperationAggregate{ByStatus: make(map[state.OperationStatus]int)}
	for _, op := range s.operations {
		if op.Owner != owner || op.CreatedAt.Before(from) || op.CreatedAt.After(to) {
			continue
		}
		agg.ByStatus[op.Status]++
		agg.ProcessedItems += op.ProcessedCount
		agg.SuccessfulItems += op.SuccessCount
		if op.Status == state.OperationCompleted && op.ProcessingTimeMs != nil {
			agg.TotalProcessingTimeMs += *op.ProcessingTimeMs
			agg.TimedOperations++
		}
	}
	return agg, nil
}

func (s *OperationStore) collectItems(operationID int64, limit int, keep func(*types.OperationItem) bool) []types.OperationItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []types.OperationItem{}
	for _, itemID := range s.itemIDs[operationID] {
		it := s.items[itemID]
		if !keep(it) {
			continue
		}
		items = append(items, *it)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items
}

func (s *OperationStore) updateOperation(id int64, fn func(*types.Operation) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operations[id]
	if !ok {
		return false
	}
	return fn(op)
}

func (s *OperationStore) updateItem(itemID int64, from state.ItemStatus, fn func(*types.OperationItem)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[itemID]
	if !ok || it.Status != from {
		return false
	}
	fn(it)
	return true
}

func (s *OperationStore) skipPendingLocked(operationID int64) int64 {
	var n int64
	for _, itemID := range s.itemIDs[operationID] {
		if it := s.items[itemID]; it.Status == state.ItemPending {
			it.Status = state.ItemSkipped
			n++
		}
	}
	return n
}
