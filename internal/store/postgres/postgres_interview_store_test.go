package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var interviewRowColumns = []string{
	"id", "application_id", "employer_id", "candidate_id", "job_id",
	"scheduled_at", "duration", "status", "type", "created_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPostgresInterviewStore_Create(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresInterviewStore(db)
	at := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO gohire_schema.interviews").
		WithArgs(int64(100), int64(7), int64(1), int64(50), at, 60, types.InterviewScheduled, types.InterviewTypeVideo).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	id, err := s.Create(context.Background(), &types.Interview{
		ApplicationID: 100, EmployerID: 7, CandidateID: 1, JobID: 50,
		ScheduledAt: at, Duration: 60, Status: types.InterviewScheduled, Type: types.InterviewTypeVideo,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInterviewStore_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresInterviewStore(db)
	at := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM gohire_schema.interviews WHERE id = \\$1").
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(interviewRowColumns).
			AddRow(int64(12), int64(100), int64(7), int64(1), int64(50), at, 45, "scheduled", "phone", at))
	mock.ExpectQuery("FROM gohire_schema.interviews WHERE id = \\$1").
		WithArgs(int64(13)).
		WillReturnError(sql.ErrNoRows)

	iv, err := s.FindByID(context.Background(), 12)
	require.NoError(t, err)
	require.NotNil(t, iv)
	assert.Equal(t, types.InterviewScheduled, iv.Status)
	assert.Equal(t, 45, iv.Duration)
	assert.Equal(t, at.Add(45*time.Minute), iv.End())

	missing, err := s.FindByID(context.Background(), 13)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInterviewStore_UpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresInterviewStore(db)

	mock.ExpectExec("UPDATE gohire_schema.interviews SET status = \\$2").
		WithArgs(int64(12), types.InterviewCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE gohire_schema.interviews SET status = \\$2").
		WithArgs(int64(99), types.InterviewCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.UpdateStatus(context.Background(), 12, types.InterviewCancelled)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateStatus(context.Background(), 99, types.InterviewCancelled)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInterviewStore_ListScheduled(t *testing.T) {
	from := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	first := from.Add(9 * time.Hour)
	second := from.Add(11 * time.Hour)

	overlapFilter := regexp.QuoteMeta("scheduled_at < $4 AND scheduled_at + make_interval(mins => duration) > $3")

	t.Run("employer", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresInterviewStore(db)

		mock.ExpectQuery("WHERE employer_id = \\$1 AND status = \\$2 AND " + overlapFilter + " ORDER BY scheduled_at, id").
			WithArgs(int64(7), types.InterviewScheduled, from, to).
			WillReturnRows(sqlmock.NewRows(interviewRowColumns).
				AddRow(int64(1), int64(100), int64(7), int64(1), int64(50), first, 60, "scheduled", "video", from).
				AddRow(int64(2), int64(101), int64(7), int64(2), int64(50), second, 30, "scheduled", "video", from))

		interviews, err := s.ListScheduledForEmployer(context.Background(), 7, from, to)
		require.NoError(t, err)
		require.Len(t, interviews, 2)
		assert.Equal(t, first, interviews[0].ScheduledAt)
		assert.Equal(t, second, interviews[1].ScheduledAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("candidate", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresInterviewStore(db)

		mock.ExpectQuery("WHERE candidate_id = \\$1 AND status = \\$2 AND " + overlapFilter).
			WithArgs(int64(1), types.InterviewScheduled, from, to).
			WillReturnRows(sqlmock.NewRows(interviewRowColumns))

		interviews, err := s.ListScheduledForCandidate(context.Background(), 1, from, to)
		require.NoError(t, err)
		assert.Empty(t, interviews)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
