package types

import "time"

type InterviewConflict struct {
	ID          int64      `json:"id"`
	EmployerID  int64      `json:"employer_id"`
	CandidateID *int64     `json:"candidate_id,omitempty"`
	InterviewID *int64     `json:"interview_id,omitempty"`
	Description string     `json:"description"`
	Resolved    bool       `json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ConflictResolution is a suggested alternative time for a conflict. Lower priority is preferred.
type ConflictResolution struct {
	ID               int64      `json:"id"`
	ConflictID       int64      `json:"conflict_id"`
	ProposedTime     time.Time  `json:"proposed_time"`
	ProposedDuration int        `json:"proposed_duration"`
	Description      string     `json:"description"`
	Priority         int        `json:"priority"`
	Applied          bool       `json:"applied"`
	AppliedAt        *time.Time `json:"applied_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
