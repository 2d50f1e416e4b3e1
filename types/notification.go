package types

import "time"

// Notification is the message handed to a notifier for one recipient of an operation.
type Notification struct {
	ID            string     `json:"id"`
	OperationID   int64      `json:"operation_id"`
	OperationType string     `json:"operation_type"`
	RecipientID   int64      `json:"recipient_id"`
	RecipientType TargetType `json:"recipient_type"`
	Channel       string     `json:"channel"`
	Subject       string     `json:"subject,omitempty"`
	Body          string     `json:"body"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
