package types

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// OperationParams is the typed parameter set of one operation type.
type OperationParams interface {
	OperationType() OperationType
}

type ScheduleInterviewParams struct {
	EmployerID int64           `json:"employer_id" validate:"required,gt=0"`
	JobID      int64           `json:"job_id" validate:"gte=0"`
	Rules      SchedulingRules `json:"rules"`
}

func (ScheduleInterviewParams) OperationType() OperationType { return OperationScheduleInterview }

type CancelInterviewParams struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (CancelInterviewParams) OperationType() OperationType { return OperationCancelInterview }

type UpdateApplicationStatusParams struct {
	Status string `json:"status" validate:"required,oneof=applied screening interviewing offered hired rejected withdrawn"`
	Note   string `json:"note" validate:"max=1000"`
}

func (UpdateApplicationStatusParams) OperationType() OperationType {
	return OperationUpdateApplicationStatus
}

type SendNotificationParams struct {
	Channel string `json:"channel" validate:"required,oneof=email sms in_app"`
	Subject string `json:"subject" validate:"max=200"`
	Body    string `json:"body" validate:"required"`
}

func (SendNotificationParams) OperationType() OperationType { return OperationSendNotification }

type RequestAvailabilityParams struct {
	Message      string `json:"message"`
	DeadlineDays int    `json:"deadline_days" validate:"gte=0,lte=60"`
}

func (RequestAvailabilityParams) OperationType() OperationType {
	return OperationRequestAvailability
}

type CloseJobParams struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (CloseJobParams) OperationType() OperationType { return OperationCloseJob }

// DecodeOperationParams unmarshals raw into the parameter struct registered for t and validates it.
// An empty payload decodes into the zero value of that struct.
func DecodeOperationParams(t OperationType, raw json.RawMessage) (OperationParams, error) {
	var params OperationParams
	switch t {
	case OperationScheduleInterview:
		p := ScheduleInterviewParams{}
		if err := unmarshalParams(raw, &p); err != nil {
			return nil, err
		}
		if err := p.Rules.Validate(); err != nil {
			return nil, err
		}
		params = p
	case OperationCancelInterview:
		p := CancelInterviewParams{}
		if err := unmarshalParams(raw, &p); err != nil {
			return nil, err
		}
		params = p
	case OperationUpdateApplicationStatus:
		p := UpdateApplicationStatusParams{}
		if err := unmarshalParams(raw, &p); err != nil {
			return nil, err
		}
		params = p
	case OperationSendNotification:
		p := SendNotificationParams{}
		if err := unmarshalParams(raw, &p); err != nil {
			return nil, err
		}
		params = p
	case OperationRequestAvailability:
		p := RequestAvailabilityParams{}
		if err := unmarshalParams(raw, &p); err != nil {
			return nil, err
		}
		params = p
	case OperationCloseJob:
		p := CloseJobParams{}
		if err := unmarshalParams(raw, &p); err != nil {
			return nil, err
		}
		params = p
	default:
		return nil, fmt.Errorf("unknown operation type %q", t)
	}

	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid %s parameters: %w", t, err)
	}
	return params, nil
}

func unmarshalParams(raw json.RawMessage, target any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("invalid operation params: %w", err)
	}
	return nil
}

// ValidateStruct runs the package validator against any tagged struct.
func ValidateStruct(s any) error {
	return validate.Struct(s)
}
