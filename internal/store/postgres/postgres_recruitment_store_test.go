package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"slices"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var applicationRowColumns = []string{"id", "candidate_id", "job_id", "employer_id", "status"}

// int64ArrayArg matches a pq.Array argument by its decoded elements.
type int64ArrayArg []int64

func (a int64ArrayArg) Match(v driver.Value) bool {
	var got pq.Int64Array
	if err := got.Scan(v); err != nil {
		return false
	}
	return slices.Equal([]int64(got), []int64(a))
}

func TestPostgresRecruitmentStore_FindEmployer(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresRecruitmentStore(db)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM gohire_schema.employers WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "name", "created_at"}).
			AddRow(int64(7), "recruiter", "Acme", now))
	mock.ExpectQuery("FROM gohire_schema.employers WHERE id = \\$1").
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM gohire_schema.employers WHERE id = \\$1").
		WithArgs(int64(9)).
		WillReturnError(errors.New("connection reset"))

	e, err := s.FindEmployer(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "recruiter", e.Owner)
	assert.Equal(t, "Acme", e.Name)

	missing, err := s.FindEmployer(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.FindEmployer(context.Background(), 9)
	assert.ErrorContains(t, err, "failed to find employer 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecruitmentStore_FindApplications_KeepsRequestOrder(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresRecruitmentStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND candidate_id = ANY($2) AND ($3 = 0 OR job_id = $3) ORDER BY array_position($2, candidate_id), id")).
		WithArgs(int64(7), int64ArrayArg{3, 1, 2}, int64(0)).
		WillReturnRows(sqlmock.NewRows(applicationRowColumns).
			AddRow(int64(103), int64(3), int64(50), int64(7), "applied").
			AddRow(int64(101), int64(1), int64(50), int64(7), "applied").
			AddRow(int64(102), int64(2), int64(51), int64(7), "screening"))

	apps, err := s.FindApplications(context.Background(), 7, 0, []int64{3, 1, 2})
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{apps[0].CandidateID, apps[1].CandidateID, apps[2].CandidateID})
	assert.Equal(t, "screening", apps[2].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecruitmentStore_FindApplications_JobFilter(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresRecruitmentStore(db)

	mock.ExpectQuery("FROM gohire_schema.applications").
		WithArgs(int64(7), int64ArrayArg{1}, int64(50)).
		WillReturnRows(sqlmock.NewRows(applicationRowColumns))
	mock.ExpectQuery("FROM gohire_schema.applications").
		WillReturnError(errors.New("connection reset"))

	apps, err := s.FindApplications(context.Background(), 7, 50, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, apps)

	_, err = s.FindApplications(context.Background(), 7, 50, []int64{1})
	assert.ErrorContains(t, err, "failed to find applications")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecruitmentStore_FindApplication(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresRecruitmentStore(db)

	mock.ExpectQuery("FROM gohire_schema.applications WHERE id = \\$1").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows(applicationRowColumns).
			AddRow(int64(101), int64(1), int64(50), int64(7), "applied"))
	mock.ExpectQuery("FROM gohire_schema.applications WHERE id = \\$1").
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	app, err := s.FindApplication(context.Background(), 101)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, int64(50), app.JobID)

	missing, err := s.FindApplication(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecruitmentStore_StatusUpdates(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresRecruitmentStore(db)

	mock.ExpectExec("UPDATE gohire_schema.applications SET status = \\$2").
		WithArgs(int64(101), "rejected").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE gohire_schema.jobs SET status = 'closed'")).
		WithArgs(int64(50)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status <> 'closed'")).
		WithArgs(int64(50)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.UpdateApplicationStatus(context.Background(), 101, "rejected")
	require.NoError(t, err)
	assert.True(t, ok)

	closed, err := s.CloseJob(context.Background(), 50)
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = s.CloseJob(context.Background(), 50)
	require.NoError(t, err)
	assert.False(t, closed, "already closed job is reported unchanged")
	assert.NoError(t, mock.ExpectationsWereMet())
}
