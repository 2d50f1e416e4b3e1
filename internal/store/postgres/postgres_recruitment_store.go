package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/lib/pq"
)

type PostgresRecruitmentStore struct {
	db *sql.DB
}

func NewPostgresRecruitmentStore(db *sql.DB) *PostgresRecruitmentStore {
	return &PostgresRecruitmentStore{db: db}
}

var _ store.RecruitmentStore = (*PostgresRecruitmentStore)(nil)

func (s *PostgresRecruitmentStore) FindEmployer(ctx context.Context, id int64) (*types.Employer, error) {
	var e types.Employer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner, name, created_at FROM gohire_schema.employers WHERE id = $1`, id,
	).Scan(&e.ID, &e.Owner, &e.Name, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find employer %d: %w", id, err)
	}
	return &e, nil
}

func (s *PostgresRecruitmentStore) FindApplications(ctx context.Context, employerID, jobID int64, candidateIDs []int64) ([]types.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate_id, job_id, employer_id, status
		FROM gohire_schema.applications
		WHERE employer_id = $1
		  AND candidate_id = ANY($2)
		  AND ($3 = 0 OR job_id = $3)
		ORDER BY array_position($2, candidate_id), id`,
		employerID, pq.Array(candidateIDs), jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to find applications: %w", err)
	}
	defer rows.Close()

	var apps []types.Application
	for rows.Next() {
		var a types.Application
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.JobID, &a.EmployerID, &a.Status); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (s *PostgresRecruitmentStore) FindApplication(ctx context.Context, id int64) (*types.Application, error) {
	var a types.Application
	err := s.db.QueryRowContext(ctx, `
		SELECT id, candidate_id, job_id, employer_id, status FROM gohire_schema.applications WHERE id = $1`, id,
	).Scan(&a.ID, &a.CandidateID, &a.JobID, &a.EmployerID, &a.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresRecruitmentStore) UpdateApplicationStatus(ctx context.Context, id int64, status string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gohire_schema.applications SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update application %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *PostgresRecruitmentStore) CloseJob(ctx context.Context, jobID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gohire_schema.jobs SET status = 'closed', closed_at = now()
		WHERE id = $1 AND status <> 'closed'`, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to close job %d: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
