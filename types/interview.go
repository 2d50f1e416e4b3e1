package types

import "time"

type InterviewStatus string

const (
	InterviewScheduled   InterviewStatus = "scheduled"
	InterviewCompleted   InterviewStatus = "completed"
	InterviewCancelled   InterviewStatus = "cancelled"
	InterviewRescheduled InterviewStatus = "rescheduled"
)

const (
	InterviewTypeVideo  = "video"
	InterviewTypePhone  = "phone"
	InterviewTypeOnsite = "onsite"
)

type Interview struct {
	ID            int64           `json:"id"`
	ApplicationID int64           `json:"application_id"`
	EmployerID    int64           `json:"employer_id"`
	CandidateID   int64           `json:"candidate_id"`
	JobID         int64           `json:"job_id"`
	ScheduledAt   time.Time       `json:"scheduled_at"`
	Duration      int             `json:"duration"`
	Status        InterviewStatus `json:"status"`
	Type          string          `json:"type"`
	CreatedAt     time.Time       `json:"created_at"`
}

// End returns the exclusive end of the interview interval.
func (i Interview) End() time.Time {
	return i.ScheduledAt.Add(time.Duration(i.Duration) * time.Minute)
}

// Application links a candidate to a job posted by an employer.
type Application struct {
	ID          int64  `json:"id"`
	CandidateID int64  `json:"candidate_id"`
	JobID       int64  `json:"job_id"`
	EmployerID  int64  `json:"employer_id"`
	Status      string `json:"status"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}
