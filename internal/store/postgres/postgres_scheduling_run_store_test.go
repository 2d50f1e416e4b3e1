package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runRowColumns = []string{
	"id", "employer_id", "job_id", "name", "total_candidates", "scheduled_count", "conflict_count",
	"failed_count", "status", "rules", "created_at", "completed_at",
}

func TestPostgresSchedulingRunStore_Create(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresSchedulingRunStore(db)
	job := int64(50)

	mock.ExpectQuery("INSERT INTO gohire_schema.scheduling_runs").
		WithArgs(int64(7), job, "spring intake", 3, types.RunPending, []byte(`{"duration":45,"buffer_minutes":15,"max_per_day":0}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	id, err := s.Create(context.Background(), &types.SchedulingRun{
		EmployerID: 7, JobID: &job, Name: "spring intake", TotalCandidates: 3,
		Rules: types.SchedulingRules{Duration: 45, BufferMinutes: 15},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchedulingRunStore_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresSchedulingRunStore(db)
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM gohire_schema.scheduling_runs WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(runRowColumns).
			AddRow(int64(1), int64(7), nil, "spring intake", 3, 2, 1, 0, "completed",
				[]byte(`{"duration":45,"interview_type":"phone"}`), now, now))
	mock.ExpectQuery("FROM gohire_schema.scheduling_runs WHERE id = \\$1").
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM gohire_schema.scheduling_runs WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(runRowColumns).
			AddRow(int64(3), int64(7), nil, "broken", 1, 0, 0, 0, "pending", []byte(`{"duration":`), now, nil))

	run, err := s.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Nil(t, run.JobID)
	assert.Equal(t, types.RunCompleted, run.Status)
	assert.Equal(t, 45, run.Rules.Duration)
	assert.Equal(t, "phone", run.Rules.InterviewType)
	require.NotNil(t, run.CompletedAt)

	missing, err := s.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.FindByID(context.Background(), 3)
	assert.ErrorContains(t, err, "failed to unmarshal rules of run 3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSchedulingRunStore_Lifecycle(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresSchedulingRunStore(db)
	done := time.Date(2025, 3, 3, 9, 5, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE gohire_schema.scheduling_runs SET status = \\$2 WHERE id = \\$1").
		WithArgs(int64(1), types.RunProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET scheduled_count = \\$2, conflict_count = \\$3, failed_count = \\$4").
		WithArgs(int64(1), 2, 1, 0, types.RunCompleted, done).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.MarkProcessing(context.Background(), 1))
	require.NoError(t, s.Finalize(context.Background(), 1, 2, 1, 0, types.RunCompleted, done))
	assert.NoError(t, mock.ExpectationsWereMet())
}
