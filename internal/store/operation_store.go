package store

import (
	"context"
	"time"

	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/types"
)

// OperationStore is the job ledger: operations and their per-target items.
// Every status-changing method is conditional on the current status and reports
// whether a row actually moved.
type OperationStore interface {
	// Create inserts the operation and one pending item per target in a single transaction.
	Create(ctx context.Context, op *types.Operation, targetIDs []int64) (int64, error)

	// FindByID returns nil, nil when the operation does not exist.
	FindByID(ctx context.Context, id int64) (*types.Operation, error)

	GetStatus(ctx context.Context, id int64) (state.OperationStatus, error)

	// List returns the owner's operations, newest first. An empty status matches all.
	List(ctx context.Context, owner string, page, pageSize int, status state.OperationStatus) (*types.PaginationResult[types.Operation], error)

	// ListItems returns at most limit items in creation order.
	ListItems(ctx context.Context, operationID int64, limit int) ([]types.OperationItem, error)

	// ListPendingItems returns the pending items of an operation in creation order.
	ListPendingItems(ctx context.Context, operationID int64) ([]types.OperationItem, error)

	// MarkProcessing moves a pending operation to processing.
	MarkProcessing(ctx context.Context, id int64, startedAt time.Time) (bool, error)

	// Resume accepts a pending or processing operation and refreshes its updated_at.
	// Used when re-dispatching an abandoned operation.
	Resume(ctx context.Context, id int64, at time.Time) (bool, error)

	MarkItemProcessing(ctx context.Context, itemID int64, at time.Time) (bool, error)

	// FinishItem records the outcome of a processing item and counts it on the operation
	// (one processed plus one success or failure) in a single transaction.
	// A nil cause completes the item, any other fails it with cause as the message.
	// It reports false and counts nothing when the item is no longer processing.
	FinishItem(ctx context.Context, operationID, itemID int64, at time.Time, cause error) (bool, error)

	// Complete moves a processing operation to completed.
	Complete(ctx context.Context, id int64, completedAt time.Time, processingTimeMs int64, summary string) (bool, error)

	// Fail moves a non-terminal operation to failed.
	Fail(ctx context.Context, id int64, completedAt time.Time, errSummary string) (bool, error)

	// Cancel moves a pending or processing operation to cancelled and marks its
	// pending items skipped in the same transaction.
	Cancel(ctx context.Context, id int64, cancelledAt time.Time) (bool, error)

	SkipPendingItems(ctx context.Context, operationID int64) (int64, error)

	// ResetProcessingItems returns in-flight items of an abandoned operation to pending.
	ResetProcessingItems(ctx context.Context, operationID int64) (int64, error)

	// FindStalled returns ids of pending or processing operations not updated since olderThan.
	FindStalled(ctx context.Context, olderThan time.Time) ([]int64, error)

	// Aggregate sums the owner's operations created within [from, to].
	Aggregate(ctx context.Context, owner string, from, to time.Time) (*types.OperationAggregate, error)
}
