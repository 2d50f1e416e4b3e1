package scheduling

import (
	"context"
	"fmt"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

type RunService struct {
	runs      store.SchedulingRunStore
	scheduler *BulkScheduler
	employers *EmployerAccess
}

func NewRunService(runs store.SchedulingRunStore, scheduler *BulkScheduler, employers *EmployerAccess) *RunService {
	return &RunService{runs: runs, scheduler: scheduler, employers: employers}
}

// CreateSchedulingRun records a run for an employer of owner and executes it synchronously.
// An empty owner skips the ownership check.
func (s *RunService) CreateSchedulingRun(ctx context.Context, owner string, req types.CreateSchedulingRunRequest) (*types.SchedulingRunResult, error) {
	if err := types.ValidateStruct(req); err != nil {
		return nil, custom_errors.NewValidationError("%s", err.Error())
	}
	if err := req.Rules.Validate(); err != nil {
		return nil, custom_errors.NewValidationError("%s", err.Error())
	}
	if _, err := s.employers.Authorize(ctx, owner, req.EmployerID); err != nil {
		return nil, err
	}

	run := &types.SchedulingRun{
		EmployerID:      req.EmployerID,
		JobID:           req.JobID,
		Name:            req.Name,
		TotalCandidates: len(req.CandidateIDs),
		Rules:           req.Rules,
	}
	runID, err := s.runs.Create(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("create scheduling run: %w", err)
	}
	if err := s.runs.MarkProcessing(ctx, runID); err != nil {
		return nil, fmt.Errorf("start scheduling run %d: %w", runID, err)
	}

	var jobID int64
	if req.JobID != nil {
		jobID = *req.JobID
	}
	result, err := s.scheduler.BulkScheduleInterviews(ctx, runID, req.EmployerID, req.CandidateIDs, jobID, req.Rules)
	if err != nil {
		return nil, fmt.Errorf("scheduling run %d: %w", runID, err)
	}

	stored, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, custom_errors.NewNotFoundError("scheduling run", runID)
	}
	return &types.SchedulingRunResult{Run: *stored, Result: *result}, nil
}
