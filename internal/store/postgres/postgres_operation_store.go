package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/lib/pq"
)

const operationColumns = `
	id, owner, operation_type, target_type, status,
	target_count, processed_count, success_count, failed_count,
	target_criteria, parameters, result_summary, error_summary, processing_time_ms,
	created_at, updated_at, started_at, completed_at, cancelled_at`

const itemColumns = `id, operation_id, target_id, target_type, status, processed_at, error_message, created_at`

type PostgresOperationStore struct {
	db *sql.DB
}

func NewPostgresOperationStore(db *sql.DB) *PostgresOperationStore {
	return &PostgresOperationStore{db: db}
}

var _ store.OperationStore = (*PostgresOperationStore)(nil)

func (s *PostgresOperationStore) Create(ctx context.Context, op *types.Operation, targetIDs []int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO gohire_schema.bulk_operations
			(owner, operation_type, target_type, status, target_count, target_criteria, parameters, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id`,
		op.Owner, op.OperationType, op.TargetType, state.OperationPending, len(targetIDs),
		nullableJSON(op.TargetCriteria), nullableJSON(op.Parameters),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert operation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO gohire_schema.bulk_operation_items (operation_id, target_id, target_type, status, created_at)
		SELECT $1, t.target_id, $3, $4, now()
		FROM unnest($2::bigint[]) WITH ORDINALITY AS t(target_id, ord)
		ORDER BY t.ord`,
		id, pq.Array(targetIDs), op.TargetType, state.ItemPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert operation items: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit operation: %w", err)
	}
	return id, nil
}

func (s *PostgresOperationStore) FindByID(ctx context.Context, id int64) (*types.Operation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM gohire_schema.bulk_operations WHERE id = $1`, id)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load operation %d: %w", id, err)
	}
	return op, nil
}

func (s *PostgresOperationStore) GetStatus(ctx context.Context, id int64) (state.OperationStatus, error) {
	var status state.OperationStatus
	err := s.db.QueryRowContext(ctx, `SELECT status FROM gohire_schema.bulk_operations WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", custom_errors.NewNotFoundError("operation", id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read operation status: %w", err)
	}
	return status, nil
}

func (s *PostgresOperationStore) List(ctx context.Context, owner string, page, pageSize int, status state.OperationStatus) (*types.PaginationResult[types.Operation], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	args := []interface{}{owner}
	where := "owner = $1"
	argIndex := 2
	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	var totalItems int
	countQuery := `SELECT COUNT(*) FROM gohire_schema.bulk_operations WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalItems); err != nil {
		return nil, fmt.Errorf("failed to count operations: %w", err)
	}

	selectQuery := fmt.Sprintf(`SELECT %s FROM gohire_schema.bulk_operations WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, operationColumns, where, argIndex, argIndex+1)
	args = append(args, pageSize, offset)

	rows, err := s.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	ops := make([]types.Operation, 0, pageSize)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))
	return &types.PaginationResult[types.Operation]{
		Items:           ops,
		TotalItems:      totalItems,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}, nil
}

func (s *PostgresOperationStore) ListItems(ctx context.Context, operationID int64, limit int) ([]types.OperationItem, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM gohire_schema.bulk_operation_items
		WHERE operation_id = $1 ORDER BY id LIMIT $2`, operationID, limit)
}

func (s *PostgresOperationStore) ListPendingItems(ctx context.Context, operationID int64) ([]types.OperationItem, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM gohire_schema.bulk_operation_items
		WHERE operation_id = $1 AND status = $2 ORDER BY id`, operationID, state.ItemPending)
}

func (s *PostgresOperationStore) MarkProcessing(ctx context.Context, id int64, startedAt time.Time) (bool, error) {
	return s.execAffected(ctx, `
		UPDATE gohire_schema.bulk_operations
		SET status = $2, started_at = $3, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, state.OperationProcessing, startedAt, state.OperationPending)
}

func (s *PostgresOperationStore) Resume(ctx context.Context, id int64, at time.Time) (bool, error) {
	return s.execAffected(ctx, `
		UPDATE gohire_schema.bulk_operations
		SET status = $2, started_at = COALESCE(started_at, $3), updated_at = $3
		WHERE id = $1 AND status IN ($4, $2)`,
		id, state.OperationProcessing, at, state.OperationPending)
}

func (s *PostgresOperationStore) MarkItemProcessing(ctx context.Context, itemID int64, at time.Time) (bool, error) {
	return s.execAffected(ctx, `
		UPDATE gohire_schema.bulk_operation_items SET status = $2
		WHERE id = $1 AND status = $3`,
		itemID, state.ItemProcessing, state.ItemPending)
}

func (s *PostgresOperationStore) FinishItem(ctx context.Context, operationID, itemID int64, at time.Time, cause error) (bool, error) {
	status, success, failed := state.ItemCompleted, 1, 0
	var errMsg sql.NullString
	if cause != nil {
		status, success, failed = state.ItemFailed, 0, 1
		errMsg = sql.NullString{String: cause.Error(), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE gohire_schema.bulk_operation_items SET status = $3, processed_at = $4, error_message = $5
		WHERE id = $1 AND operation_id = $2 AND status = $6`,
		itemID, operationID, status, at, errMsg, state.ItemProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to finish item %d: %w", itemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE gohire_schema.bulk_operations
		SET processed_count = processed_count + 1,
		    success_count = success_count + $2,
		    failed_count = failed_count + $3,
		    updated_at = $4
		WHERE id = $1`,
		operationID, success, failed, at)
	if err != nil {
		return false, fmt.Errorf("failed to update operation counters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit item %d: %w", itemID, err)
	}
	return true, nil
}

func (s *PostgresOperationStore) Complete(ctx context.Context, id int64, completedAt time.Time, processingTimeMs int64, summary string) (bool, error) {
	return s.execAffected(ctx, `
		UPDATE gohire_schema.bulk_operations
		SET status = $2, completed_at = $3, updated_at = $3, processing_time_ms = $4, result_summary = $5
		WHERE id = $1 AND status = $6`,
		id, state.OperationCompleted, completedAt, processingTimeMs, summary, state.OperationProcessing)
}

func (s *PostgresOperationStore) Fail(ctx context.Context, id int64, completedAt time.Time, errSummary string) (bool, error) {
	return s.execAffected(ctx, `
		UPDATE gohire_schema.bulk_operations
		SET status = $2, completed_at = $3, updated_at = $3, error_summary = $4
		WHERE id = $1 AND status IN ($5, $6)`,
		id, state.OperationFailed, completedAt, errSummary, state.OperationPending, state.OperationProcessing)
}

func (s *PostgresOperationStore) Cancel(ctx context.Context, id int64, cancelledAt time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE gohire_schema.bulk_operations
		SET status = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $1 AND status IN ($4, $5)`,
		id, state.OperationCancelled, cancelledAt, state.OperationPending, state.OperationProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to cancel operation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE gohire_schema.bulk_operation_items SET status = $2
		WHERE operation_id = $1 AND status = $3`,
		id, state.ItemSkipped, state.ItemPending)
	if err != nil {
		return false, fmt.Errorf("failed to skip pending items: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return true, nil
}

func (s *PostgresOperationStore) SkipPendingItems(ctx context.Context, operationID int64) (int64, error) {
	return s.execCount(ctx, `
		UPDATE gohire_schema.bulk_operation_items SET status = $2
		WHERE operation_id = $1 AND status = $3`,
		operationID, state.ItemSkipped, state.ItemPending)
}

func (s *PostgresOperationStore) ResetProcessingItems(ctx context.Context, operationID int64) (int64, error) {
	return s.execCount(ctx, `
		UPDATE gohire_schema.bulk_operation_items SET status = $2
		WHERE operation_id = $1 AND status = $3`,
		operationID, state.ItemPending, state.ItemProcessing)
}

func (s *PostgresOperationStore) FindStalled(ctx context.Context, olderThan time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM gohire_schema.bulk_operations
		WHERE status IN ($1, $2) AND updated_at < $3
		ORDER BY id`,
		state.OperationPending, state.OperationProcessing, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to find stalled operations: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresOperationStore) Aggregate(ctx context.Context, owner string, from, to time.Time) (*types.OperationAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status,
		       COUNT(*),
		       COALESCE(SUM(processed_count), 0),
		       COALESCE(SUM(success_count), 0),
		       COALESCE(SUM(processing_time_ms) FILTER (WHERE status = 'completed'), 0),
		       COUNT(processing_time_ms) FILTER (WHERE status = 'completed')
		FROM gohire_schema.bulk_operations
		WHERE owner = $1 AND created_at BETWEEN $2 AND $3
		GROUP BY status`,
		owner, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate operations: %w", err)
	}
	defer rows.Close()

	agg := &types.OperationAggregate{ByStatus: make(map[state.OperationStatus]int)}
	for rows.Next() {
		var (
			status              state.OperationStatus
			count, processed    int
			succeeded, timedOps int
			totalMs             int64
		)
		if err := rows.Scan(&status, &count, &processed, &succeeded, &totalMs, &timedOps); err != nil {
			return nil, err
		}
		agg.ByStatus[status] = count
		agg.ProcessedItems += processed
		agg.SuccessfulItems += succeeded
		agg.TotalProcessingTimeMs += totalMs
		agg.TimedOperations += timedOps
	}
	return agg, rows.Err()
}

func (s *PostgresOperationStore) queryItems(ctx context.Context, query string, args ...interface{}) ([]types.OperationItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load operation items: %w", err)
	}
	defer rows.Close()

	items := []types.OperationItem{}
	for rows.Next() {
		var item types.OperationItem
		err := rows.Scan(&item.ID, &item.OperationID, &item.TargetID, &item.TargetType,
			&item.Status, &item.ProcessedAt, &item.ErrorMessage, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresOperationStore) execAffected(ctx context.Context, query string, args ...interface{}) (bool, error) {
	n, err := s.execCount(ctx, query, args...)
	return n > 0, err
}

func (s *PostgresOperationStore) execCount(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (*types.Operation, error) {
	var (
		op               types.Operation
		criteria, params []byte
	)
	err := row.Scan(
		&op.ID, &op.Owner, &op.OperationType, &op.TargetType, &op.Status,
		&op.TargetCount, &op.ProcessedCount, &op.SuccessCount, &op.FailedCount,
		&criteria, &params, &op.ResultSummary, &op.ErrorSummary, &op.ProcessingTimeMs,
		&op.CreatedAt, &op.UpdatedAt, &op.StartedAt, &op.CompletedAt, &op.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	op.TargetCriteria = criteria
	op.Parameters = params
	return &op, nil
}

// nullableJSON stores an empty payload as SQL NULL.
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
