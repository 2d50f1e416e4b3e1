package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/constants"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/parser"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/sirupsen/logrus"
)

const (
	ReasonNoApplication = "No matching application found"
	ReasonNoSlots       = "No available time slots found"
	ReasonAllConflicts  = "All available slots have conflicts"
)

// BulkScheduler books the earliest conflict-free slot for each matching application.
type BulkScheduler struct {
	slots       *SlotGenerator
	detector    *ConflictDetector
	advisor     *ResolutionAdvisor
	interviews  store.InterviewStore
	recruitment store.RecruitmentStore
	runs        store.SchedulingRunStore
	clock       clock.Clock
	log         logrus.FieldLogger

	// guards the check-then-book sequence against concurrent runs in this process
	bookingMu sync.Mutex
}

func NewBulkScheduler(
	slots *SlotGenerator,
	detector *ConflictDetector,
	advisor *ResolutionAdvisor,
	interviews store.InterviewStore,
	recruitment store.RecruitmentStore,
	runs store.SchedulingRunStore,
	clk clock.Clock,
	log logrus.FieldLogger,
) *BulkScheduler {
	if clk == nil {
		clk = clock.Real()
	}
	return &BulkScheduler{
		slots:       slots,
		detector:    detector,
		advisor:     advisor,
		interviews:  interviews,
		recruitment: recruitment,
		runs:        runs,
		clock:       clk,
		log:         logger.OrDiscard(log),
	}
}

// BulkScheduleInterviews schedules every application of candidateIDs with the employer (and job,
// when jobID is non-zero) into the first slot of the next 30 days that is free for both sides.
// When runID is non-zero the run's counts and status are finalized at the end.
func (b *BulkScheduler) BulkScheduleInterviews(ctx context.Context, runID, employerID int64, candidateIDs []int64, jobID int64, rules types.SchedulingRules) (*types.BulkScheduleResult, error) {
	result, err := b.schedule(ctx, employerID, candidateIDs, jobID, rules)
	if runID == 0 {
		return result, err
	}

	status := types.RunCompleted
	if err != nil {
		status = types.RunFailed
	}
	if ferr := b.runs.Finalize(ctx, runID, len(result.Scheduled), len(result.Conflicts), len(result.Failed), status, b.clock.Now()); ferr != nil {
		if err == nil {
			err = ferr
		}
	}
	return result, err
}

func (b *BulkScheduler) schedule(ctx context.Context, employerID int64, candidateIDs []int64, jobID int64, rules types.SchedulingRules) (*types.BulkScheduleResult, error) {
	result := &types.BulkScheduleResult{
		Scheduled: []types.ScheduledInterview{},
		Conflicts: []types.SchedulingConflict{},
		Failed:    []types.FailedCandidate{},
	}

	candidateIDs = uniqueIDs(candidateIDs)
	apps, err := b.recruitment.FindApplications(ctx, employerID, jobID, candidateIDs)
	if err != nil {
		return result, fmt.Errorf("load applications: %w", err)
	}

	byCandidate := make(map[int64][]types.Application, len(apps))
	for _, app := range apps {
		byCandidate[app.CandidateID] = append(byCandidate[app.CandidateID], app)
	}

	for _, candidateID := range candidateIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		candidateApps := byCandidate[candidateID]
		if len(candidateApps) == 0 {
			result.Failed = append(result.Failed, types.FailedCandidate{CandidateID: candidateID, Reason: ReasonNoApplication})
			continue
		}
		for _, app := range candidateApps {
			if err := b.scheduleApplication(ctx, app, rules, result); err != nil {
				return result, err
			}
		}
	}

	b.log.WithFields(logrus.Fields{
		"employer_id": employerID,
		"scheduled":   len(result.Scheduled),
		"conflicts":   len(result.Conflicts),
		"failed":      len(result.Failed),
	}).Info("bulk scheduling finished")
	return result, nil
}

func (b *BulkScheduler) scheduleApplication(ctx context.Context, app types.Application, rules types.SchedulingRules, result *types.BulkScheduleResult) error {
	duration := rules.EffectiveDuration()
	log := b.log.WithFields(logrus.Fields{"candidate_id": app.CandidateID, "application_id": app.ID})

	b.bookingMu.Lock()
	defer b.bookingMu.Unlock()

	now := b.clock.Now()
	horizonEnd := now.Add(constants.SchedulingHorizon)

	slots, err := b.slots.FindAvailableTimeSlots(ctx, app.CandidateID, app.EmployerID, duration, now, horizonEnd)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		result.Failed = append(result.Failed, types.FailedCandidate{
			CandidateID: app.CandidateID, ApplicationID: app.ID, Reason: ReasonNoSlots,
		})
		return nil
	}

	var (
		firstConflict  time.Time
		conflictingIDs []int64
		seen           = map[int64]bool{}
	)
	for _, slot := range orderByPreference(slots, rules.PreferredTimeSlots) {
		if rules.MaxPerDay > 0 {
			booked, err := b.detector.countOnDay(ctx, app.EmployerID, slot)
			if err != nil {
				return err
			}
			if booked >= rules.MaxPerDay {
				continue
			}
		}

		clashes, err := b.detector.CheckWithBuffer(ctx, app.EmployerID, slot, duration, rules.BufferMinutes)
		if err != nil {
			return err
		}
		if len(clashes) > 0 {
			if firstConflict.IsZero() {
				firstConflict = slot
			}
			for _, iv := range clashes {
				if !seen[iv.ID] {
					seen[iv.ID] = true
					conflictingIDs = append(conflictingIDs, iv.ID)
				}
			}
			continue
		}

		interview := &types.Interview{
			ApplicationID: app.ID,
			EmployerID:    app.EmployerID,
			CandidateID:   app.CandidateID,
			JobID:         app.JobID,
			ScheduledAt:   slot,
			Duration:      duration,
			Status:        types.InterviewScheduled,
			Type:          rules.EffectiveInterviewType(),
		}
		id, err := b.interviews.Create(ctx, interview)
		if err != nil {
			return fmt.Errorf("book interview for application %d: %w", app.ID, err)
		}
		result.Scheduled = append(result.Scheduled, types.ScheduledInterview{
			CandidateID:   app.CandidateID,
			ApplicationID: app.ID,
			InterviewID:   id,
			ScheduledAt:   slot,
			Duration:      duration,
		})
		log.WithField("scheduled_at", slot).Debug("interview booked")
		return nil
	}

	result.Failed = append(result.Failed, types.FailedCandidate{
		CandidateID: app.CandidateID, ApplicationID: app.ID, Reason: ReasonAllConflicts,
	})
	if len(conflictingIDs) == 0 {
		// only the per-day cap rejected slots; there is no calendar clash to record
		return nil
	}

	conflict := types.SchedulingConflict{
		CandidateID:             app.CandidateID,
		ApplicationID:           app.ID,
		FirstSlot:               firstConflict,
		ConflictingInterviewIDs: conflictingIDs,
	}
	if b.advisor != nil {
		conflictID, err := b.recordConflict(ctx, app, conflictingIDs[0], duration, rules.BufferMinutes, horizonEnd)
		if err != nil {
			log.WithError(err).Warn("failed to record scheduling conflict")
		} else {
			conflict.ConflictID = conflictID
		}
	}
	result.Conflicts = append(result.Conflicts, conflict)
	return nil
}

func (b *BulkScheduler) recordConflict(ctx context.Context, app types.Application, interviewID int64, duration, buffer int, horizonEnd time.Time) (int64, error) {
	candidateID := app.CandidateID
	c, err := b.advisor.CreateConflict(ctx, types.InterviewConflict{
		EmployerID:  app.EmployerID,
		CandidateID: &candidateID,
		InterviewID: &interviewID,
		Description: fmt.Sprintf("Every available slot of candidate %d for application %d collides with the employer calendar", candidateID, app.ID),
	})
	if err != nil {
		return 0, err
	}

	_, err = b.advisor.SuggestAlternatives(ctx, c.ID, candidateID, app.EmployerID, duration, buffer,
		horizonEnd, horizonEnd.Add(constants.SchedulingHorizon), constants.MaxSuggestedAlternatives)
	if err != nil {
		return c.ID, err
	}
	return c.ID, nil
}

// uniqueIDs drops repeated ids, keeping the first occurrence of each.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// orderByPreference moves slots inside a preferred window to the front, keeping chronological
// order within both groups.
func orderByPreference(slots []time.Time, preferred []types.PreferredTimeSlot) []time.Time {
	if len(preferred) == 0 {
		return slots
	}

	ordered := append([]time.Time(nil), slots...)
	rank := func(t time.Time) int {
		if isPreferred(t, preferred) {
			return 0
		}
		return 1
	}
	sort.SliceStable(ordered, func(i, j int) bool { return rank(ordered[i]) < rank(ordered[j]) })
	return ordered
}

func isPreferred(slot time.Time, preferred []types.PreferredTimeSlot) bool {
	minuteOfDay := slot.Hour()*60 + slot.Minute()
	for _, p := range preferred {
		if p.DayOfWeek != "" {
			day, err := types.ParseWeekday(p.DayOfWeek)
			if err != nil || day != slot.Weekday() {
				continue
			}
		}
		start, err := parser.ParseClock(p.StartTime)
		if err != nil {
			continue
		}
		end, err := parser.ParseClock(p.EndTime)
		if err != nil {
			continue
		}
		if minuteOfDay >= start && minuteOfDay < end {
			return true
		}
	}
	return false
}
