package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

const (
	conflictColumns   = `id, employer_id, candidate_id, interview_id, description, resolved, resolved_at, created_at`
	resolutionColumns = `id, conflict_id, proposed_time, proposed_duration, description, priority, applied, applied_at, created_at`
)

type PostgresConflictStore struct {
	db *sql.DB
}

func NewPostgresConflictStore(db *sql.DB) *PostgresConflictStore {
	return &PostgresConflictStore{db: db}
}

var _ store.ConflictStore = (*PostgresConflictStore)(nil)

func (s *PostgresConflictStore) CreateConflict(ctx context.Context, c *types.InterviewConflict) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO gohire_schema.interview_conflicts (employer_id, candidate_id, interview_id, description, resolved, created_at)
		VALUES ($1, $2, $3, $4, FALSE, now())
		RETURNING id`,
		c.EmployerID, c.CandidateID, c.InterviewID, c.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert conflict: %w", err)
	}
	return id, nil
}

func (s *PostgresConflictStore) FindConflict(ctx context.Context, id int64) (*types.InterviewConflict, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+conflictColumns+` FROM gohire_schema.interview_conflicts WHERE id = $1`, id)
	c, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *PostgresConflictStore) ListConflicts(ctx context.Context, employerID int64, includeResolved bool) ([]types.InterviewConflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM gohire_schema.interview_conflicts WHERE employer_id = $1`
	if !includeResolved {
		query += ` AND resolved = FALSE`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, employerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []types.InterviewConflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, *c)
	}
	return conflicts, rows.Err()
}

func (s *PostgresConflictStore) MarkResolved(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gohire_schema.interview_conflicts SET resolved = TRUE, resolved_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresConflictStore) CreateResolution(ctx context.Context, r *types.ConflictResolution) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO gohire_schema.conflict_resolutions
			(conflict_id, proposed_time, proposed_duration, description, priority, applied, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, now())
		RETURNING id`,
		r.ConflictID, r.ProposedTime, r.ProposedDuration, r.Description, r.Priority,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert resolution: %w", err)
	}
	return id, nil
}

func (s *PostgresConflictStore) FindResolution(ctx context.Context, id int64) (*types.ConflictResolution, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resolutionColumns+` FROM gohire_schema.conflict_resolutions WHERE id = $1`, id)
	r, err := scanResolution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *PostgresConflictStore) ListResolutions(ctx context.Context, conflictID int64) ([]types.ConflictResolution, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resolutionColumns+` FROM gohire_schema.conflict_resolutions
		WHERE conflict_id = $1 ORDER BY priority ASC, id ASC`, conflictID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := []types.ConflictResolution{}
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, *r)
	}
	return resolutions, rows.Err()
}

func (s *PostgresConflictStore) MarkApplied(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gohire_schema.conflict_resolutions SET applied = TRUE, applied_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanConflict(row rowScanner) (*types.InterviewConflict, error) {
	var c types.InterviewConflict
	err := row.Scan(&c.ID, &c.EmployerID, &c.CandidateID, &c.InterviewID, &c.Description, &c.Resolved, &c.ResolvedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanResolution(row rowScanner) (*types.ConflictResolution, error) {
	var r types.ConflictResolution
	err := row.Scan(&r.ID, &r.ConflictID, &r.ProposedTime, &r.ProposedDuration, &r.Description,
		&r.Priority, &r.Applied, &r.AppliedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
