package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/constants"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/parser"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/sirupsen/logrus"
)

type SlotGenerator struct {
	availability store.AvailabilityStore
	interviews   store.InterviewStore
	clock        clock.Clock
	log          logrus.FieldLogger
}

func NewSlotGenerator(availability store.AvailabilityStore, interviews store.InterviewStore, clk clock.Clock, log logrus.FieldLogger) *SlotGenerator {
	if clk == nil {
		clk = clock.Real()
	}
	return &SlotGenerator{
		availability: availability,
		interviews:   interviews,
		clock:        clk,
		log:          logger.OrDiscard(log),
	}
}

// FindAvailableTimeSlots returns, in chronological order, the start times inside the candidate's
// active weekly windows within [startDate, endDate) at which an interview of duration minutes
// fits without overlapping one of the candidate's scheduled interviews.
// Slots are enumerated hourly from each window's start and must end by the window's end.
// Slots earlier than the current time are dropped.
// A candidate without availability yields an empty slice and no error.
func (g *SlotGenerator) FindAvailableTimeSlots(ctx context.Context, candidateID, employerID int64, duration int, startDate, endDate time.Time) ([]time.Time, error) {
	if duration <= 0 {
		return nil, custom_errors.NewValidationError("duration must be positive, got %d", duration)
	}
	if !endDate.After(startDate) {
		return nil, custom_errors.NewValidationError("end date must be after start date")
	}

	windows, err := g.availability.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load availability of candidate %d: %w", candidateID, err)
	}
	if len(windows) == 0 {
		return []time.Time{}, nil
	}

	if now := g.clock.Now(); startDate.Before(now) {
		startDate = now
		if !endDate.After(startDate) {
			return []time.Time{}, nil
		}
	}

	booked, err := g.interviews.ListScheduledForCandidate(ctx, candidateID, startDate, endDate.Add(minutes(duration)))
	if err != nil {
		return nil, fmt.Errorf("load interviews of candidate %d: %w", candidateID, err)
	}

	length := minutes(duration)
	slots := []time.Time{}
	for _, w := range windows {
		candidates, err := windowSlots(w, startDate, endDate, length)
		if err != nil {
			g.log.WithFields(logrus.Fields{
				"candidate_id":    candidateID,
				"availability_id": w.ID,
			}).WithError(err).Warn("skipping invalid availability window")
			continue
		}
		for _, slot := range candidates {
			if !overlapsAny(slot, slot.Add(length), booked) {
				slots = append(slots, slot)
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })

	g.log.WithFields(logrus.Fields{
		"candidate_id": candidateID,
		"employer_id":  employerID,
		"slots":        len(slots),
	}).Debug("generated candidate slots")
	return slots, nil
}

// windowSlots enumerates the hourly slots of one weekly window that start within [from, to).
func windowSlots(w types.CandidateAvailability, from, to time.Time, length time.Duration) ([]time.Time, error) {
	weekday, err := types.ParseWeekday(w.DayOfWeek)
	if err != nil {
		return nil, err
	}
	startMin, err := parser.ParseClock(w.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := parser.ParseClock(w.EndTime)
	if err != nil {
		return nil, err
	}
	loc, err := loadLocation(w.Timezone)
	if err != nil {
		return nil, err
	}

	var slots []time.Time
	first := from.In(loc)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	for ; day.Before(to); day = day.AddDate(0, 0, 1) {
		if day.Weekday() != weekday {
			continue
		}
		windowStart := parser.AtClock(day, startMin, loc)
		windowEnd := parser.AtClock(day, endMin, loc)
		for slot := windowStart; !slot.Add(length).After(windowEnd); slot = slot.Add(constants.SlotStep) {
			if slot.Before(from) || !slot.Before(to) {
				continue
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

func overlapsAny(start, end time.Time, interviews []types.Interview) bool {
	for _, iv := range interviews {
		if Overlaps(start, end, iv.ScheduledAt, iv.End()) {
			return true
		}
	}
	return false
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
