package types

import (
	"errors"
	"fmt"
	"time"
)

const DefaultInterviewDuration = 60

type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// PreferredTimeSlot is a daily "HH:MM" window, optionally restricted to one weekday.
type PreferredTimeSlot struct {
	DayOfWeek string `json:"day_of_week,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type SchedulingRules struct {
	Duration           int                 `json:"duration" validate:"gte=0,lte=480"`
	BufferMinutes      int                 `json:"buffer_minutes" validate:"gte=0,lte=240"`
	MaxPerDay          int                 `json:"max_per_day" validate:"gte=0"`
	PreferredTimeSlots []PreferredTimeSlot `json:"preferred_time_slots,omitempty"`
	InterviewType      string              `json:"interview_type,omitempty" validate:"omitempty,oneof=video phone onsite"`
}

// EffectiveDuration returns the interview length in minutes, falling back to the default.
func (r SchedulingRules) EffectiveDuration() int {
	if r.Duration <= 0 {
		return DefaultInterviewDuration
	}
	return r.Duration
}

func (r SchedulingRules) EffectiveInterviewType() string {
	if r.InterviewType == "" {
		return InterviewTypeVideo
	}
	return r.InterviewType
}

func (r SchedulingRules) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid scheduling rules: %w", err)
	}
	for _, p := range r.PreferredTimeSlots {
		if p.StartTime == "" || p.EndTime == "" {
			return errors.New("invalid scheduling rules: preferred time slot needs start_time and end_time")
		}
		if p.DayOfWeek != "" {
			if _, err := ParseWeekday(p.DayOfWeek); err != nil {
				return fmt.Errorf("invalid scheduling rules: %w", err)
			}
		}
	}
	return nil
}

type SchedulingRun struct {
	ID              int64           `json:"id"`
	EmployerID      int64           `json:"employer_id"`
	JobID           *int64          `json:"job_id,omitempty"`
	Name            string          `json:"name"`
	TotalCandidates int             `json:"total_candidates"`
	ScheduledCount  int             `json:"scheduled_count"`
	ConflictCount   int             `json:"conflict_count"`
	FailedCount     int             `json:"failed_count"`
	Status          RunStatus       `json:"status"`
	Rules           SchedulingRules `json:"rules"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

type CreateSchedulingRunRequest struct {
	EmployerID   int64           `json:"employer_id" validate:"required,gt=0"`
	JobID        *int64          `json:"job_id,omitempty"`
	Name         string          `json:"name" validate:"required,max=200"`
	CandidateIDs []int64         `json:"candidate_ids" validate:"required,min=1,unique,dive,gt=0"`
	Rules        SchedulingRules `json:"rules"`
}

type ScheduledInterview struct {
	CandidateID   int64     `json:"candidate_id"`
	ApplicationID int64     `json:"application_id"`
	InterviewID   int64     `json:"interview_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Duration      int       `json:"duration"`
}

// SchedulingConflict describes a candidate for whom every slot collided with the employer calendar.
type SchedulingConflict struct {
	CandidateID             int64     `json:"candidate_id"`
	ApplicationID           int64     `json:"application_id"`
	ConflictID              int64     `json:"conflict_id,omitempty"`
	FirstSlot               time.Time `json:"first_slot"`
	ConflictingInterviewIDs []int64   `json:"conflicting_interview_ids"`
}

type FailedCandidate struct {
	CandidateID   int64  `json:"candidate_id"`
	ApplicationID int64  `json:"application_id,omitempty"`
	Reason        string `json:"reason"`
}

type BulkScheduleResult struct {
	Scheduled []ScheduledInterview `json:"scheduled"`
	Conflicts []SchedulingConflict `json:"conflicts"`
	Failed    []FailedCandidate    `json:"failed"`
}

type SchedulingRunResult struct {
	Run    SchedulingRun      `json:"run"`
	Result BulkScheduleResult `json:"result"`
}
