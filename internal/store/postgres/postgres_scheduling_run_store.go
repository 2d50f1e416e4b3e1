package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

type PostgresSchedulingRunStore struct {
	db *sql.DB
}

func NewPostgresSchedulingRunStore(db *sql.DB) *PostgresSchedulingRunStore {
	return &PostgresSchedulingRunStore{db: db}
}

var _ store.SchedulingRunStore = (*PostgresSchedulingRunStore)(nil)

func (s *PostgresSchedulingRunStore) Create(ctx context.Context, run *types.SchedulingRun) (int64, error) {
	rules, err := json.Marshal(run.Rules)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal rules: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO gohire_schema.scheduling_runs (employer_id, job_id, name, total_candidates, status, rules, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id`,
		run.EmployerID, run.JobID, run.Name, run.TotalCandidates, types.RunPending, rules,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scheduling run: %w", err)
	}
	return id, nil
}

func (s *PostgresSchedulingRunStore) FindByID(ctx context.Context, id int64) (*types.SchedulingRun, error) {
	var (
		run   types.SchedulingRun
		rules []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employer_id, job_id, name, total_candidates, scheduled_count, conflict_count,
		       failed_count, status, rules, created_at, completed_at
		FROM gohire_schema.scheduling_runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.EmployerID, &run.JobID, &run.Name, &run.TotalCandidates, &run.ScheduledCount,
		&run.ConflictCount, &run.FailedCount, &run.Status, &rules, &run.CreatedAt, &run.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &run.Rules); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rules of run %d: %w", id, err)
		}
	}
	return &run, nil
}

func (s *PostgresSchedulingRunStore) MarkProcessing(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE gohire_schema.scheduling_runs SET status = $2 WHERE id = $1`, id, types.RunProcessing)
	return err
}

func (s *PostgresSchedulingRunStore) Finalize(ctx context.Context, id int64, scheduled, conflicts, failed int, status types.RunStatus, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE gohire_schema.scheduling_runs
		SET scheduled_count = $2, conflict_count = $3, failed_count = $4, status = $5, completed_at = $6
		WHERE id = $1`,
		id, scheduled, conflicts, failed, status, completedAt)
	if err != nil {
		return fmt.Errorf("failed to finalize scheduling run %d: %w", id, err)
	}
	return nil
}
