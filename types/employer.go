package types

import "time"

// Employer is the owner of interview calendars. Owner is the username allowed to act on it.
type Employer struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
