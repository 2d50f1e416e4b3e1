package scheduling

import (
	"context"
	"strings"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/parser"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

// AvailabilityService maintains the weekly availability windows of candidates.
// Active windows of one candidate on one day never overlap.
type AvailabilityService struct {
	store store.AvailabilityStore
}

func NewAvailabilityService(s store.AvailabilityStore) *AvailabilityService {
	return &AvailabilityService{store: s}
}

func (s *AvailabilityService) SetAvailability(ctx context.Context, a types.CandidateAvailability) (*types.CandidateAvailability, error) {
	a.ID = 0
	a.IsActive = true
	normalizeWindow(&a)
	if err := s.validate(ctx, a); err != nil {
		return nil, err
	}

	id, err := s.store.Create(ctx, &a)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *AvailabilityService) UpdateAvailability(ctx context.Context, id int64, u types.AvailabilityUpdate) (*types.CandidateAvailability, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := u.Apply(*current)
	normalizeWindow(&updated)
	if err := s.validate(ctx, updated); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *AvailabilityService) DeleteAvailability(ctx context.Context, id int64) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return custom_errors.NewNotFoundError("availability", id)
	}
	return nil
}

func (s *AvailabilityService) ListAvailability(ctx context.Context, candidateID int64) ([]types.CandidateAvailability, error) {
	return s.store.ListByCandidate(ctx, candidateID)
}

func (s *AvailabilityService) validate(ctx context.Context, a types.CandidateAvailability) error {
	verr := &custom_errors.ValidationError{}
	if err := types.ValidateStruct(a); err != nil {
		verr.Add(err)
	}

	start, startErr := parser.ParseClock(a.StartTime)
	if startErr != nil {
		verr.Add(startErr)
	}
	end, endErr := parser.ParseClock(a.EndTime)
	if endErr != nil {
		verr.Add(endErr)
	}
	if startErr == nil && endErr == nil && start >= end {
		verr.Add(custom_errors.NewValidationError("start_time %s must be before end_time %s", a.StartTime, a.EndTime))
	}
	if _, err := loadLocation(a.Timezone); err != nil {
		verr.Add(custom_errors.NewValidationError("invalid timezone %q", a.Timezone))
	}
	if verr.HasError() {
		return verr
	}
	if !a.IsActive {
		return nil
	}

	existing, err := s.store.ListByCandidate(ctx, a.CandidateID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == a.ID || other.DayOfWeek != a.DayOfWeek {
			continue
		}
		otherStart, err1 := parser.ParseClock(other.StartTime)
		otherEnd, err2 := parser.ParseClock(other.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if start < otherEnd && otherStart < end {
			return custom_errors.NewValidationError("window %s-%s overlaps existing window %s-%s on %s",
				a.StartTime, a.EndTime, other.StartTime, other.EndTime, a.DayOfWeek)
		}
	}
	return nil
}

func (s *AvailabilityService) find(ctx context.Context, id int64) (*types.CandidateAvailability, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, custom_errors.NewNotFoundError("availability", id)
	}
	return a, nil
}

func normalizeWindow(a *types.CandidateAvailability) {
	a.DayOfWeek = strings.ToLower(strings.TrimSpace(a.DayOfWeek))
	a.StartTime = strings.TrimSpace(a.StartTime)
	a.EndTime = strings.TrimSpace(a.EndTime)
	if a.Timezone == "" {
		a.Timezone = "UTC"
	}
}
