package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

type AvailabilityStore struct {
	mu     sync.RWMutex
	clock  clock.Clock
	rows   map[int64]*types.CandidateAvailability
	nextID int64
}

func NewAvailabilityStore(c clock.Clock) *AvailabilityStore {
	if c == nil {
		c = clock.Real()
	}
	return &AvailabilityStore{clock: c, rows: make(map[int64]*types.CandidateAvailability)}
}

var _ store.AvailabilityStore = (*AvailabilityStore)(nil)

func (s *AvailabilityStore) Create(_ context.Context, a *types.CandidateAvailability) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	row := *a
	row.ID = s.nextID
	row.CreatedAt = s.clock.Now()
	row.UpdatedAt = row.CreatedAt
	s.rows[row.ID] = &row
	return row.ID, nil
}

func (s *AvailabilityStore) FindByID(_ context.Context, id int64) (*types.CandidateAvailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (s *AvailabilityStore) Update(_ context.Context, a *types.CandidateAvailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[a.ID]; !ok {
		return nil
	}
	row := *a
	row.UpdatedAt = s.clock.Now()
	s.rows[a.ID] = &row
	return nil
}

func (s *AvailabilityStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.rows[id]
	delete(s.rows, id)
	return ok, nil
}

func (s *AvailabilityStore) ListByCandidate(_ context.Context, candidateID int64) ([]types.CandidateAvailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var windows []types.CandidateAvailability
	for _, row := range s.rows {
		if row.CandidateID == candidateID && row.IsActive {
			windows = append(windows, *row)
		}
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].ID < windows[j].ID })
	return windows, nil
}

type InterviewStore struct {
	mu     sync.RWMutex
	clock  clock.Clock
	rows   map[int64]*types.Interview
	nextID int64
}

func NewInterviewStore(c clock.Clock) *InterviewStore {
	if c == nil {
		c = clock.Real()
	}
	return &InterviewStore{clock: c, rows: make(map[int64]*types.Interview)}
}

var _ store.InterviewStore = (*InterviewStore)(nil)

func (s *InterviewStore) Create(_ context.Context, iv *types.Interview) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	row := *iv
	row.ID = s.nextID
	row.CreatedAt = s.clock.Now()
	s.rows[row.ID] = &row
	return row.ID, nil
}

func (s *InterviewStore) FindByID(_ context.Context, id int64) (*types.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (s *InterviewStore) UpdateStatus(_ context.Context, id int64, status types.InterviewStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return false, nil
	}
	row.Status = status
	return true, nil
}

func (s *InterviewStore) ListScheduledForEmployer(_ context.Context, employerID int64, from, to time.Time) ([]types.Interview, error) {
	return s.listScheduled(func(iv *types.Interview) bool { return iv.EmployerID == employerID }, from, to), nil
}

func (s *InterviewStore) ListScheduledForCandidate(_ context.Context, candidateID int64, from, to time.Time) ([]types.Interview, error) {
	return s.listScheduled(func(iv *types.Interview) bool { return iv.CandidateID == candidateID }, from, to), nil
}

func (s *InterviewStore) listScheduled(match func(*types.Interview) bool, from, to time.Time) []types.Interview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var interviews []types.Interview
	for _, iv := range s.rows {
		if iv.Status != types.InterviewScheduled || !match(iv) {
			continue
		}
		if iv.ScheduledAt.Before(to) && iv.End().After(from) {
			interviews = append(interviews, *iv)
		}
	}
	sort.Slice(interviews, func(i, j int) bool {
		if interviews[i].ScheduledAt.Equal(interviews[j].ScheduledAt) {
			return interviews[i].ID < interviews[j].ID
		}
		return interviews[i].ScheduledAt.Before(interviews[j].ScheduledAt)
	})
	return interviews
}

type ConflictStore struct {
	mu               sync.RWMutex
	clock            clock.Clock
	conflicts        map[int64]*types.InterviewConflict
	resolutions      map[int64]*types.ConflictResolution
	nextConflictID   int64
	nextResolutionID int64
}

func NewConflictStore(c clock.Clock) *ConflictStore {
	if c == nil {
		c = clock.Real()
	}
	return &ConflictStore{
		clock:       c,
		conflicts:   make(map[int64]*types.InterviewConflict),
		resolutions: make(map[int64]*types.ConflictResolution),
	}
}

var _ store.ConflictStore = (*ConflictStore)(nil)

func (s *ConflictStore) CreateConflict(_ context.Context, c *types.InterviewConflict) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextConflictID++
	row := *c
	row.ID = s.nextConflictID
	row.Resolved = false
	row.ResolvedAt = nil
	row.CreatedAt = s.clock.Now()
	s.conflicts[row.ID] = &row
	return row.ID, nil
}

func (s *ConflictStore) FindConflict(_ context.Context, id int64) (*types.InterviewConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.conflicts[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (s *ConflictStore) ListConflicts(_ context.Context, employerID int64, includeResolved bool) ([]types.InterviewConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.InterviewConflict
	for _, c := range s.conflicts {
		if c.EmployerID == employerID && (includeResolved || !c.Resolved) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ConflictStore) MarkResolved(_ context.Context, id int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conflicts[id]
	if !ok {
		return false, nil
	}
	c.Resolved = true
	c.ResolvedAt = &at
	return true, nil
}

func (s *ConflictStore) CreateResolution(_ context.Context, r *types.ConflictResolution) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextResolutionID++
	row := *r
	row.ID = s.nextResolutionID
	row.Applied = false
	row.AppliedAt = nil
	row.CreatedAt = s.clock.Now()
	s.resolutions[row.ID] = &row
	return row.ID, nil
}

func (s *ConflictStore) FindResolution(_ context.Context, id int64) (*types.ConflictResolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.resolutions[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (s *ConflictStore) ListResolutions(_ context.Context, conflictID int64) ([]types.ConflictResolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []types.ConflictResolution{}
	for _, r := range s.resolutions {
		if r.ConflictID == conflictID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority == out[j].Priority {
			return out[i].ID < out[j].ID
		}
		return out[i].Priority < out[j].Priority
	})
	return out, nil
}

func (s *ConflictStore) MarkApplied(_ context.Context, id int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resolutions[id]
	if !ok {
		return false, nil
	}
	r.Applied = true
	r.AppliedAt = &at
	return true, nil
}

type SchedulingRunStore struct {
	mu     sync.RWMutex
	clock  clock.Clock
	rows   map[int64]*types.SchedulingRun
	nextID int64
}

func NewSchedulingRunStore(c clock.Clock) *SchedulingRunStore {
	if c == nil {
		c = clock.Real()
	}
	return &SchedulingRunStore{clock: c, rows: make(map[int64]*types.SchedulingRun)}
}

var _ store.SchedulingRunStore = (*SchedulingRunStore)(nil)

func (s *SchedulingRunStore) Create(_ context.Context, run *types.SchedulingRun) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	row := *run
	row.ID = s.nextID
	row.Status = types.RunPending
	row.CreatedAt = s.clock.Now()
	s.rows[row.ID] = &row
	return row.ID, nil
}

func (s *SchedulingRunStore) FindByID(_ context.Context, id int64) (*types.SchedulingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (s *SchedulingRunStore) MarkProcessing(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.rows[id]; ok {
		row.Status = types.RunProcessing
	}
	return nil
}

func (s *SchedulingRunStore) Finalize(_ context.Context, id int64, scheduled, conflicts, failed int, status types.RunStatus, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.rows[id]; ok {
		row.ScheduledCount = scheduled
		row.ConflictCount = conflicts
		row.FailedCount = failed
		row.Status = status
		row.CompletedAt = &completedAt
	}
	return nil
}
