package mocks

import (
	"context"
	"time"

	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

// MockOperationStore delegates to the embedded store unless the matching Func is set.
type MockOperationStore struct {
	store.OperationStore

	GetStatusFunc         func(ctx context.Context, id int64) (state.OperationStatus, error)
	ListPendingItemsFunc  func(ctx context.Context, operationID int64) ([]types.OperationItem, error)
	FinishItemFunc        func(ctx context.Context, operationID, itemID int64, at time.Time, cause error) (bool, error)
	SkipPendingItemsFunc  func(ctx context.Context, operationID int64) (int64, error)
	FailFunc              func(ctx context.Context, id int64, completedAt time.Time, errSummary string) (bool, error)
	CreateFunc            func(ctx context.Context, op *types.Operation, targetIDs []int64) (int64, error)
}

func (m *MockOperationStore) Create(ctx context.Context, op *types.Operation, targetIDs []int64) (int64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, op, targetIDs)
	}
	return m.OperationStore.Create(ctx, op, targetIDs)
}

func (m *MockOperationStore) GetStatus(ctx context.Context, id int64) (state.OperationStatus, error) {
	if m.GetStatusFunc != nil {
		return m.GetStatusFunc(ctx, id)
	}
	return m.OperationStore.GetStatus(ctx, id)
}

func (m *MockOperationStore) ListPendingItems(ctx context.Context, operationID int64) ([]types.OperationItem, error) {
	if m.ListPendingItemsFunc != nil {
		return m.ListPendingItemsFunc(ctx, operationID)
	}
	return m.OperationStore.ListPendingItems(ctx, operationID)
}

func (m *MockOperationStore) FinishItem(ctx context.Context, operationID, itemID int64, at time.Time, cause error) (bool, error) {
	if m.FinishItemFunc != nil {
		return m.FinishItemFunc(ctx, operationID, itemID, at, cause)
	}
	return m.OperationStore.FinishItem(ctx, operationID, itemID, at, cause)
}

func (m *MockOperationStore) SkipPendingItems(ctx context.Context, operationID int64) (int64, error) {
	if m.SkipPendingItemsFunc != nil {
		return m.SkipPendingItemsFunc(ctx, operationID)
	}
	return m.OperationStore.SkipPendingItems(ctx, operationID)
}

func (m *MockOperationStore) Fail(ctx context.Context, id int64, completedAt time.Time, errSummary string) (bool, error) {
	if m.FailFunc != nil {
		return m.FailFunc(ctx, id, completedAt, errSummary)
	}
	return m.OperationStore.Fail(ctx, id, completedAt, errSummary)
}
