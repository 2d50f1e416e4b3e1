package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	conflictRowColumns = []string{
		"id", "employer_id", "candidate_id", "interview_id", "description", "resolved", "resolved_at", "created_at",
	}
	resolutionRowColumns = []string{
		"id", "conflict_id", "proposed_time", "proposed_duration", "description", "priority", "applied", "applied_at", "created_at",
	}
)

func TestPostgresConflictStore_CreateConflict(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresConflictStore(db)
	candidate := int64(1)

	mock.ExpectQuery("INSERT INTO gohire_schema.interview_conflicts").
		WithArgs(int64(7), candidate, nil, "no available slot").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := s.CreateConflict(context.Background(), &types.InterviewConflict{
		EmployerID: 7, CandidateID: &candidate, Description: "no available slot",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConflictStore_FindConflict(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresConflictStore(db)
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM gohire_schema.interview_conflicts WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(conflictRowColumns).
			AddRow(int64(3), int64(7), int64(1), nil, "no available slot", true, now, now))
	mock.ExpectQuery("FROM gohire_schema.interview_conflicts WHERE id = \\$1").
		WithArgs(int64(4)).
		WillReturnError(sql.ErrNoRows)

	c, err := s.FindConflict(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, c.CandidateID)
	assert.Equal(t, int64(1), *c.CandidateID)
	assert.Nil(t, c.InterviewID)
	require.NotNil(t, c.ResolvedAt)
	assert.True(t, c.ResolvedAt.Equal(now))

	missing, err := s.FindConflict(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConflictStore_ListConflicts(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	t.Run("open only", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresConflictStore(db)

		mock.ExpectQuery("WHERE employer_id = \\$1 AND resolved = FALSE ORDER BY created_at, id").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(conflictRowColumns).
				AddRow(int64(3), int64(7), int64(1), nil, "no available slot", false, nil, now))

		conflicts, err := s.ListConflicts(context.Background(), 7, false)
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.False(t, conflicts[0].Resolved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("including resolved", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresConflictStore(db)

		mock.ExpectQuery("WHERE employer_id = \\$1 ORDER BY created_at, id").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(conflictRowColumns).
				AddRow(int64(2), int64(7), nil, int64(12), "double booked", true, now, now).
				AddRow(int64(3), int64(7), int64(1), nil, "no available slot", false, nil, now))

		conflicts, err := s.ListConflicts(context.Background(), 7, true)
		require.NoError(t, err)
		require.Len(t, conflicts, 2)
		assert.True(t, conflicts[0].Resolved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresConflictStore(db)

		mock.ExpectQuery("FROM gohire_schema.interview_conflicts").WillReturnError(errors.New("connection reset"))

		_, err := s.ListConflicts(context.Background(), 7, false)
		assert.ErrorContains(t, err, "failed to list conflicts")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresConflictStore_Resolutions(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresConflictStore(db)
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	proposed := now.Add(2 * time.Hour)

	mock.ExpectQuery("INSERT INTO gohire_schema.conflict_resolutions").
		WithArgs(int64(3), proposed, 60, "next free slot", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectQuery("WHERE conflict_id = \\$1 ORDER BY priority ASC, id ASC").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(resolutionRowColumns).
			AddRow(int64(9), int64(3), proposed, 60, "next free slot", 1, false, nil, now).
			AddRow(int64(10), int64(3), proposed.Add(time.Hour), 60, "later slot", 2, false, nil, now))
	mock.ExpectExec("UPDATE gohire_schema.conflict_resolutions SET applied = TRUE").
		WithArgs(int64(9), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE gohire_schema.interview_conflicts SET resolved = TRUE").
		WithArgs(int64(3), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := s.CreateResolution(context.Background(), &types.ConflictResolution{
		ConflictID: 3, ProposedTime: proposed, ProposedDuration: 60, Description: "next free slot", Priority: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	resolutions, err := s.ListResolutions(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, resolutions, 2)
	assert.Equal(t, 1, resolutions[0].Priority)
	assert.Equal(t, 2, resolutions[1].Priority)

	applied, err := s.MarkApplied(context.Background(), 9, now)
	require.NoError(t, err)
	assert.True(t, applied)

	resolved, err := s.MarkResolved(context.Background(), 3, now)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConflictStore_ListResolutions_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresConflictStore(db)

	mock.ExpectQuery("FROM gohire_schema.conflict_resolutions").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(resolutionRowColumns))

	resolutions, err := s.ListResolutions(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, resolutions)
	assert.Empty(t, resolutions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
