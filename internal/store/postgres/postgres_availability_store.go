package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

const availabilityColumns = `id, candidate_id, day_of_week, start_time, end_time, timezone, is_active, created_at, updated_at`

type PostgresAvailabilityStore struct {
	db *sql.DB
}

func NewPostgresAvailabilityStore(db *sql.DB) *PostgresAvailabilityStore {
	return &PostgresAvailabilityStore{db: db}
}

var _ store.AvailabilityStore = (*PostgresAvailabilityStore)(nil)

func (s *PostgresAvailabilityStore) Create(ctx context.Context, a *types.CandidateAvailability) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO gohire_schema.candidate_availability
			(candidate_id, day_of_week, start_time, end_time, timezone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id`,
		a.CandidateID, a.DayOfWeek, a.StartTime, a.EndTime, a.Timezone, a.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert availability: %w", err)
	}
	return id, nil
}

func (s *PostgresAvailabilityStore) FindByID(ctx context.Context, id int64) (*types.CandidateAvailability, error) {
	var a types.CandidateAvailability
	err := s.db.QueryRowContext(ctx, `SELECT `+availabilityColumns+` FROM gohire_schema.candidate_availability WHERE id = $1`, id).
		Scan(&a.ID, &a.CandidateID, &a.DayOfWeek, &a.StartTime, &a.EndTime, &a.Timezone, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresAvailabilityStore) Update(ctx context.Context, a *types.CandidateAvailability) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE gohire_schema.candidate_availability
		SET day_of_week = $2, start_time = $3, end_time = $4, timezone = $5, is_active = $6, updated_at = now()
		WHERE id = $1`,
		a.ID, a.DayOfWeek, a.StartTime, a.EndTime, a.Timezone, a.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update availability %d: %w", a.ID, err)
	}
	return nil
}

func (s *PostgresAvailabilityStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gohire_schema.candidate_availability WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresAvailabilityStore) ListByCandidate(ctx context.Context, candidateID int64) ([]types.CandidateAvailability, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+availabilityColumns+`
		FROM gohire_schema.candidate_availability
		WHERE candidate_id = $1 AND is_active = TRUE
		ORDER BY day_of_week, start_time`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	defer rows.Close()

	var windows []types.CandidateAvailability
	for rows.Next() {
		var a types.CandidateAvailability
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.DayOfWeek, &a.StartTime, &a.EndTime, &a.Timezone, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		windows = append(windows, a)
	}
	return windows, rows.Err()
}
