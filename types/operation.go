package types

import (
	"encoding/json"
	"time"

	"github.com/RezaEskandarii/gohire/internal/state"
)

type OperationType string

const (
	OperationScheduleInterview       OperationType = "schedule_interview"
	OperationCancelInterview         OperationType = "cancel_interview"
	OperationUpdateApplicationStatus OperationType = "update_application_status"
	OperationSendNotification        OperationType = "send_notification"
	OperationRequestAvailability     OperationType = "request_availability"
	OperationCloseJob                OperationType = "close_job"
)

var AllOperationTypes = []OperationType{
	OperationScheduleInterview,
	OperationCancelInterview,
	OperationUpdateApplicationStatus,
	OperationSendNotification,
	OperationRequestAvailability,
	OperationCloseJob,
}

func (t OperationType) String() string {
	return string(t)
}

func (t OperationType) IsKnown() bool {
	for _, known := range AllOperationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TargetType returns the kind of entity the items of an operation of type t refer to.
func (t OperationType) TargetType() TargetType {
	switch t {
	case OperationScheduleInterview, OperationSendNotification, OperationRequestAvailability:
		return TargetCandidate
	case OperationCancelInterview:
		return TargetInterview
	case OperationUpdateApplicationStatus:
		return TargetApplication
	case OperationCloseJob:
		return TargetJob
	}
	return ""
}

type TargetType string

const (
	TargetCandidate   TargetType = "candidate"
	TargetApplication TargetType = "application"
	TargetInterview   TargetType = "interview"
	TargetJob         TargetType = "job"
)

type Operation struct {
	ID               int64                 `json:"id"`
	Owner            string                `json:"owner"`
	OperationType    OperationType         `json:"operation_type"`
	TargetType       TargetType            `json:"target_type"`
	Status           state.OperationStatus `json:"status"`
	TargetCount      int                   `json:"target_count"`
	ProcessedCount   int                   `json:"processed_count"`
	SuccessCount     int                   `json:"success_count"`
	FailedCount      int                   `json:"failed_count"`
	TargetCriteria   json.RawMessage       `json:"target_criteria,omitempty"`
	Parameters       json.RawMessage       `json:"parameters,omitempty"`
	ResultSummary    *string               `json:"result_summary,omitempty"`
	ErrorSummary     *string               `json:"error_summary,omitempty"`
	ProcessingTimeMs *int64                `json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	StartedAt        *time.Time            `json:"started_at,omitempty"`
	CompletedAt      *time.Time            `json:"completed_at,omitempty"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
}

type OperationItem struct {
	ID           int64            `json:"id"`
	OperationID  int64            `json:"operation_id"`
	TargetID     int64            `json:"target_id"`
	TargetType   TargetType       `json:"target_type"`
	Status       state.ItemStatus `json:"status"`
	ProcessedAt  *time.Time       `json:"processed_at,omitempty"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// CreateOperationRequest is the submission payload of a bulk operation.
type CreateOperationRequest struct {
	OperationType   OperationType   `json:"operation_type" validate:"required"`
	TargetIDs       []int64         `json:"target_ids" validate:"required,min=1,dive,gt=0"`
	TargetType      TargetType      `json:"target_type" validate:"required,oneof=candidate application interview job"`
	OperationParams json.RawMessage `json:"operation_params"`
	TargetCriteria  json.RawMessage `json:"target_criteria,omitempty"`
}

type CreateOperationResult struct {
	Success     bool  `json:"success"`
	OperationID int64 `json:"operation_id"`
	TargetCount int   `json:"target_count"`
}

type CancelOperationResult struct {
	Success     bool  `json:"success"`
	OperationID int64 `json:"operation_id"`
}

type OperationDetails struct {
	Operation Operation       `json:"operation"`
	Items     []OperationItem `json:"items"`
}

// OperationAggregate holds the raw sums a stats query is computed from.
type OperationAggregate struct {
	ByStatus              map[state.OperationStatus]int
	ProcessedItems        int
	SuccessfulItems       int
	TotalProcessingTimeMs int64
	TimedOperations       int
}

type OperationStats struct {
	PeriodStart             time.Time                     `json:"period_start"`
	PeriodEnd               time.Time                     `json:"period_end"`
	TotalOperations         int                           `json:"total_operations"`
	ByStatus                map[state.OperationStatus]int `json:"by_status"`
	ProcessedItems          int                           `json:"processed_items"`
	SuccessfulItems         int                           `json:"successful_items"`
	SuccessRate             int                           `json:"success_rate"`
	ItemSuccessRate         int                           `json:"item_success_rate"`
	AverageProcessingTimeMs int64                         `json:"average_processing_time_ms"`
}

// OperationSummary is stored as the result summary of a completed operation.
type OperationSummary struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped,omitempty"`
}
