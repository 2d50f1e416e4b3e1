package store

import (
	"context"
	"time"

	"github.com/RezaEskandarii/gohire/types"
)

type AvailabilityStore interface {
	Create(ctx context.Context, a *types.CandidateAvailability) (int64, error)
	FindByID(ctx context.Context, id int64) (*types.CandidateAvailability, error)
	Update(ctx context.Context, a *types.CandidateAvailability) error
	Delete(ctx context.Context, id int64) (bool, error)

	// ListByCandidate returns the candidate's active windows.
	ListByCandidate(ctx context.Context, candidateID int64) ([]types.CandidateAvailability, error)
}

type InterviewStore interface {
	Create(ctx context.Context, iv *types.Interview) (int64, error)
	FindByID(ctx context.Context, id int64) (*types.Interview, error)
	UpdateStatus(ctx context.Context, id int64, status types.InterviewStatus) (bool, error)

	// ListScheduledForEmployer returns scheduled interviews of the employer that
	// start before to and end after from, ordered by start time.
	ListScheduledForEmployer(ctx context.Context, employerID int64, from, to time.Time) ([]types.Interview, error)

	// ListScheduledForCandidate is the candidate-scoped counterpart of ListScheduledForEmployer.
	ListScheduledForCandidate(ctx context.Context, candidateID int64, from, to time.Time) ([]types.Interview, error)
}

type ConflictStore interface {
	CreateConflict(ctx context.Context, c *types.InterviewConflict) (int64, error)
	FindConflict(ctx context.Context, id int64) (*types.InterviewConflict, error)
	ListConflicts(ctx context.Context, employerID int64, includeResolved bool) ([]types.InterviewConflict, error)
	MarkResolved(ctx context.Context, id int64, at time.Time) (bool, error)

	CreateResolution(ctx context.Context, r *types.ConflictResolution) (int64, error)
	FindResolution(ctx context.Context, id int64) (*types.ConflictResolution, error)

	// ListResolutions returns the conflict's resolutions by ascending priority.
	ListResolutions(ctx context.Context, conflictID int64) ([]types.ConflictResolution, error)
	MarkApplied(ctx context.Context, id int64, at time.Time) (bool, error)
}

type SchedulingRunStore interface {
	Create(ctx context.Context, run *types.SchedulingRun) (int64, error)
	FindByID(ctx context.Context, id int64) (*types.SchedulingRun, error)
	MarkProcessing(ctx context.Context, id int64) error
	Finalize(ctx context.Context, id int64, scheduled, conflicts, failed int, status types.RunStatus, completedAt time.Time) error
}

// RecruitmentStore covers the employers, applications and jobs that scheduling acts on.
type RecruitmentStore interface {
	FindEmployer(ctx context.Context, id int64) (*types.Employer, error)


	// FindApplications returns the employer's applications of the given candidates.
	// A zero jobID matches every job.
	FindApplications(ctx context.Context, employerID, jobID int64, candidateIDs []int64) ([]types.Application, error)
	FindApplication(ctx context.Context, id int64) (*types.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status string) (bool, error)
	CloseJob(ctx context.Context, jobID int64) (bool, error)
}
