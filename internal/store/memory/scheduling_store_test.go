package memory

import (
	"context"
	"testing"
	"time"

	"github.com/RezaEskandarii/gohire/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterviewStore_ListScheduledRange(t *testing.T) {
	s := NewInterviewStore(nil)
	ctx := context.Background()
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	_, _ = s.Create(ctx, &types.Interview{EmployerID: 1, CandidateID: 5, ScheduledAt: base, Duration: 60, Status: types.InterviewScheduled})
	cancelled, _ := s.Create(ctx, &types.Interview{EmployerID: 1, CandidateID: 6, ScheduledAt: base, Duration: 60, Status: types.InterviewScheduled})
	_, _ = s.UpdateStatus(ctx, cancelled, types.InterviewCancelled)

	got, err := s.ListScheduledForEmployer(ctx, 1, base.Add(30*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].CandidateID)

	got, _ = s.ListScheduledForEmployer(ctx, 1, base.Add(time.Hour), base.Add(2*time.Hour))
	assert.Empty(t, got, "interview ending at the range start is outside it")

	got, _ = s.ListScheduledForCandidate(ctx, 5, base.Add(-time.Hour), base)
	assert.Empty(t, got)
}

func TestConflictStore_ResolutionsByPriority(t *testing.T) {
	s := NewConflictStore(nil)
	ctx := context.Background()
	conflictID, _ := s.CreateConflict(ctx, &types.InterviewConflict{EmployerID: 1, Description: "double booked"})

	_, _ = s.CreateResolution(ctx, &types.ConflictResolution{ConflictID: conflictID, Priority: 3})
	first, _ := s.CreateResolution(ctx, &types.ConflictResolution{ConflictID: conflictID, Priority: 1})
	_, _ = s.CreateResolution(ctx, &types.ConflictResolution{ConflictID: conflictID + 1, Priority: 0})

	list, err := s.ListResolutions(ctx, conflictID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].ID)

	ok, _ := s.MarkApplied(ctx, first, time.Now())
	assert.True(t, ok)
	ok, _ = s.MarkResolved(ctx, conflictID, time.Now())
	assert.True(t, ok)

	open, _ := s.ListConflicts(ctx, 1, false)
	assert.Empty(t, open)
	all, _ := s.ListConflicts(ctx, 1, true)
	assert.Len(t, all, 1)
}

func TestRecruitmentStore(t *testing.T) {
	s := NewRecruitmentStore()
	ctx := context.Background()
	a1 := s.AddApplication(types.Application{CandidateID: 10, JobID: 100, EmployerID: 1})
	a2 := s.AddApplication(types.Application{CandidateID: 11, JobID: 100, EmployerID: 1})
	s.AddApplication(types.Application{CandidateID: 10, JobID: 200, EmployerID: 2})

	apps, err := s.FindApplications(ctx, 1, 0, []int64{11, 10})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, a2, apps[0].ID)
	assert.Equal(t, a1, apps[1].ID)

	apps, err = s.FindApplications(ctx, 1, 0, []int64{10, 10})
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	e, err := s.FindEmployer(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, e)
	s.AddEmployer(types.Employer{ID: 1, Owner: "recruiter", Name: "Acme"})
	e, err = s.FindEmployer(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "recruiter", e.Owner)

	ok, _ := s.CloseJob(ctx, 100)
	assert.True(t, ok)
	ok, _ = s.CloseJob(ctx, 100)
	assert.False(t, ok)
	assert.Equal(t, "closed", s.JobStatus(100))
}

func TestUserStore(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "admin", "pw")
	require.NoError(t, err)

	u, err := s.Find(ctx, "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Empty(t, u.Password)

	_, err = s.Find(ctx, "admin", "nope")
	assert.Error(t, err)

	missing, err := s.Find(ctx, "ghost", "pw")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
