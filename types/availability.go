package types

import (
	"fmt"
	"strings"
	"time"
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// WeekdayName returns the lower-case english name used in availability rows.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, w := range weekdayNames {
		if w == n {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("invalid day of week %q", name)
}

// CandidateAvailability is one recurring weekly window in which a candidate can be interviewed.
type CandidateAvailability struct {
	ID          int64     `json:"id"`
	CandidateID int64     `json:"candidate_id" validate:"required,gt=0"`
	DayOfWeek   string    `json:"day_of_week" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime   string    `json:"start_time" validate:"required"`
	EndTime     string    `json:"end_time" validate:"required"`
	Timezone    string    `json:"timezone" validate:"required"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AvailabilityUpdate carries the optional fields of a partial availability update.
type AvailabilityUpdate struct {
	DayOfWeek *string `json:"day_of_week,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Timezone  *string `json:"timezone,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// Apply returns a copy of a with the non-nil fields of u set.
func (u AvailabilityUpdate) Apply(a CandidateAvailability) CandidateAvailability {
	if u.DayOfWeek != nil {
		a.DayOfWeek = strings.ToLower(*u.DayOfWeek)
	}
	if u.StartTime != nil {
		a.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		a.EndTime = *u.EndTime
	}
	if u.Timezone != nil {
		a.Timezone = *u.Timezone
	}
	if u.IsActive != nil {
		a.IsActive = *u.IsActive
	}
	return a
}
