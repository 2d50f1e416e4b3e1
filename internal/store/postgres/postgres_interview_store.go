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

const interviewColumns = `id, application_id, employer_id, candidate_id, job_id, scheduled_at, duration, status, type, created_at`

type PostgresInterviewStore struct {
	db *sql.DB
}

func NewPostgresInterviewStore(db *sql.DB) *PostgresInterviewStore {
	return &PostgresInterviewStore{db: db}
}

var _ store.InterviewStore = (*PostgresInterviewStore)(nil)

func (s *PostgresInterviewStore) Create(ctx context.Context, iv *types.Interview) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO gohire_schema.interviews
			(application_id, employer_id, candidate_id, job_id, scheduled_at, duration, status, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id`,
		iv.ApplicationID, iv.EmployerID, iv.CandidateID, iv.JobID, iv.ScheduledAt, iv.Duration, iv.Status, iv.Type,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert interview: %w", err)
	}
	return id, nil
}

func (s *PostgresInterviewStore) FindByID(ctx context.Context, id int64) (*types.Interview, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM gohire_schema.interviews WHERE id = $1`, id)
	iv, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return iv, err
}

func (s *PostgresInterviewStore) UpdateStatus(ctx context.Context, id int64, status types.InterviewStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE gohire_schema.interviews SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update interview %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresInterviewStore) ListScheduledForEmployer(ctx context.Context, employerID int64, from, to time.Time) ([]types.Interview, error) {
	return s.listScheduled(ctx, "employer_id", employerID, from, to)
}

func (s *PostgresInterviewStore) ListScheduledForCandidate(ctx context.Context, candidateID int64, from, to time.Time) ([]types.Interview, error) {
	return s.listScheduled(ctx, "candidate_id", candidateID, from, to)
}

// listScheduled narrows rows by the range in SQL; exact overlap is decided by the caller.
func (s *PostgresInterviewStore) listScheduled(ctx context.Context, column string, id int64, from, to time.Time) ([]types.Interview, error) {
	query := fmt.Sprintf(`SELECT %s FROM gohire_schema.interviews
		WHERE %s = $1 AND status = $2
		  AND scheduled_at < $4
		  AND scheduled_at + make_interval(mins => duration) > $3
		ORDER BY scheduled_at, id`, interviewColumns, column)

	rows, err := s.db.QueryContext(ctx, query, id, types.InterviewScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []types.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, *iv)
	}
	return interviews, rows.Err()
}

func scanInterview(row rowScanner) (*types.Interview, error) {
	var iv types.Interview
	err := row.Scan(&iv.ID, &iv.ApplicationID, &iv.EmployerID, &iv.CandidateID, &iv.JobID,
		&iv.ScheduledAt, &iv.Duration, &iv.Status, &iv.Type, &iv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}
