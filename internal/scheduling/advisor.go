package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/sirupsen/logrus"
)

// ResolutionAdvisor records conflicts and ranked alternative times for them.
// It never moves an interview: applying a resolution only marks it chosen.
type ResolutionAdvisor struct {
	conflicts store.ConflictStore
	slots     *SlotGenerator
	detector  *ConflictDetector
	clock     clock.Clock
	log       logrus.FieldLogger
}

func NewResolutionAdvisor(conflicts store.ConflictStore, slots *SlotGenerator, detector *ConflictDetector, clk clock.Clock, log logrus.FieldLogger) *ResolutionAdvisor {
	if clk == nil {
		clk = clock.Real()
	}
	return &ResolutionAdvisor{
		conflicts: conflicts,
		slots:     slots,
		detector:  detector,
		clock:     clk,
		log:       logger.OrDiscard(log),
	}
}

func (a *ResolutionAdvisor) CreateConflict(ctx context.Context, c types.InterviewConflict) (*types.InterviewConflict, error) {
	if c.EmployerID <= 0 {
		return nil, custom_errors.NewValidationError("employer_id is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		return nil, custom_errors.NewValidationError("description is required")
	}

	id, err := a.conflicts.CreateConflict(ctx, &c)
	if err != nil {
		return nil, err
	}
	return a.findConflict(ctx, id)
}

// CreateResolution adds an alternative to an existing conflict. Lower priority is preferred.
func (a *ResolutionAdvisor) CreateResolution(ctx context.Context, r types.ConflictResolution) (*types.ConflictResolution, error) {
	if r.ProposedTime.IsZero() {
		return nil, custom_errors.NewValidationError("proposed_time is required")
	}
	if r.ProposedDuration < 0 || r.Priority < 0 {
		return nil, custom_errors.NewValidationError("proposed_duration and priority must not be negative")
	}
	if r.ProposedDuration == 0 {
		r.ProposedDuration = types.DefaultInterviewDuration
	}
	if _, err := a.findConflict(ctx, r.ConflictID); err != nil {
		return nil, err
	}

	id, err := a.conflicts.CreateResolution(ctx, &r)
	if err != nil {
		return nil, err
	}
	return a.findResolution(ctx, id)
}

// GetResolutions returns the conflict's resolutions by ascending priority.
func (a *ResolutionAdvisor) GetResolutions(ctx context.Context, conflictID int64) ([]types.ConflictResolution, error) {
	if _, err := a.findConflict(ctx, conflictID); err != nil {
		return nil, err
	}
	return a.conflicts.ListResolutions(ctx, conflictID)
}

// ApplyResolution marks a resolution applied. Rescheduling the interview is left to the caller.
func (a *ResolutionAdvisor) ApplyResolution(ctx context.Context, resolutionID int64) (*types.ConflictResolution, error) {
	r, err := a.findResolution(ctx, resolutionID)
	if err != nil {
		return nil, err
	}
	if r.Applied {
		return r, nil
	}
	if _, err := a.conflicts.MarkApplied(ctx, resolutionID, a.clock.Now()); err != nil {
		return nil, err
	}
	return a.findResolution(ctx, resolutionID)
}

// ResolveConflict marks the conflict resolved whether or not a resolution was applied.
func (a *ResolutionAdvisor) ResolveConflict(ctx context.Context, conflictID int64) (*types.InterviewConflict, error) {
	c, err := a.findConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if c.Resolved {
		return c, nil
	}
	if _, err := a.conflicts.MarkResolved(ctx, conflictID, a.clock.Now()); err != nil {
		return nil, err
	}
	return a.findConflict(ctx, conflictID)
}

func (a *ResolutionAdvisor) FindConflict(ctx context.Context, id int64) (*types.InterviewConflict, error) {
	return a.findConflict(ctx, id)
}

func (a *ResolutionAdvisor) FindResolution(ctx context.Context, id int64) (*types.ConflictResolution, error) {
	return a.findResolution(ctx, id)
}

func (a *ResolutionAdvisor) ListConflicts(ctx context.Context, employerID int64, includeResolved bool) ([]types.InterviewConflict, error) {
	return a.conflicts.ListConflicts(ctx, employerID, includeResolved)
}

// SuggestAlternatives stores up to limit conflict-free candidate slots in [from, to)
// as resolutions of the conflict, ranked 1..n in chronological order.
func (a *ResolutionAdvisor) SuggestAlternatives(ctx context.Context, conflictID, candidateID, employerID int64, duration, bufferMinutes int, from, to time.Time, limit int) ([]types.ConflictResolution, error) {
	slots, err := a.slots.FindAvailableTimeSlots(ctx, candidateID, employerID, duration, from, to)
	if err != nil {
		return nil, err
	}

	suggestions := []types.ConflictResolution{}
	for _, slot := range slots {
		if len(suggestions) == limit {
			break
		}
		clashes, err := a.detector.CheckWithBuffer(ctx, employerID, slot, duration, bufferMinutes)
		if err != nil {
			return nil, err
		}
		if len(clashes) > 0 {
			continue
		}

		r, err := a.CreateResolution(ctx, types.ConflictResolution{
			ConflictID:       conflictID,
			ProposedTime:     slot,
			ProposedDuration: duration,
			Description:      fmt.Sprintf("Candidate available %s", slot.Format("Mon 2006-01-02 15:04 MST")),
			Priority:         len(suggestions) + 1,
		})
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, *r)
	}

	a.log.WithFields(logrus.Fields{
		"conflict_id":  conflictID,
		"candidate_id": candidateID,
		"suggestions":  len(suggestions),
	}).Debug("suggested alternatives")
	return suggestions, nil
}

func (a *ResolutionAdvisor) findConflict(ctx context.Context, id int64) (*types.InterviewConflict, error) {
	c, err := a.conflicts.FindConflict(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, custom_errors.NewNotFoundError("conflict", id)
	}
	return c, nil
}

func (a *ResolutionAdvisor) findResolution(ctx context.Context, id int64) (*types.ConflictResolution, error) {
	r, err := a.conflicts.FindResolution(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, custom_errors.NewNotFoundError("resolution", id)
	}
	return r, nil
}
