package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

type ConflictDetector struct {
	interviews store.InterviewStore
}

func NewConflictDetector(interviews store.InterviewStore) *ConflictDetector {
	return &ConflictDetector{interviews: interviews}
}

// CheckInterviewConflicts returns the employer's scheduled interviews overlapping
// [scheduledAt, scheduledAt+duration).
func (d *ConflictDetector) CheckInterviewConflicts(ctx context.Context, employerID int64, scheduledAt time.Time, duration int) ([]types.Interview, error) {
	return d.CheckWithBuffer(ctx, employerID, scheduledAt, duration, 0)
}

// CheckWithBuffer widens the candidate interval by bufferMinutes on both sides.
func (d *ConflictDetector) CheckWithBuffer(ctx context.Context, employerID int64, scheduledAt time.Time, duration, bufferMinutes int) ([]types.Interview, error) {
	if duration <= 0 {
		return nil, custom_errors.NewValidationError("duration must be positive, got %d", duration)
	}
	if bufferMinutes < 0 {
		return nil, custom_errors.NewValidationError("buffer must not be negative, got %d", bufferMinutes)
	}

	start := scheduledAt.Add(-minutes(bufferMinutes))
	end := scheduledAt.Add(minutes(duration + bufferMinutes))

	existing, err := d.interviews.ListScheduledForEmployer(ctx, employerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load interviews of employer %d: %w", employerID, err)
	}

	conflicts := []types.Interview{}
	for _, iv := range existing {
		if Overlaps(start, end, iv.ScheduledAt, iv.End()) {
			conflicts = append(conflicts, iv)
		}
	}
	return conflicts, nil
}

// countOnDay returns how many of the employer's scheduled interviews start on day's calendar date.
func (d *ConflictDetector) countOnDay(ctx context.Context, employerID int64, day time.Time) (int, error) {
	loc := day.Location()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	existing, err := d.interviews.ListScheduledForEmployer(ctx, employerID, dayStart, dayEnd)
	if err != nil {
		return 0, fmt.Errorf("load interviews of employer %d: %w", employerID, err)
	}

	count := 0
	for _, iv := range existing {
		if !iv.ScheduledAt.Before(dayStart) && iv.ScheduledAt.Before(dayEnd) {
			count++
		}
	}
	return count, nil
}
