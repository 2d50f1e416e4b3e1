package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/scheduling"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/google/uuid"
)

// HandlerDeps are the collaborators of the built-in item handlers.
type HandlerDeps struct {
	Scheduler    *scheduling.BulkScheduler
	Interviews   store.InterviewStore
	Recruitment  store.RecruitmentStore
	Availability store.AvailabilityStore
	Notifier     Notifier
	Clock        clock.Clock
}

// RegisterBuiltinHandlers registers a handler for every operation type that has none yet,
// so handlers registered through the config take precedence.
func RegisterBuiltinHandlers(reg *config.HandlerRegistry, deps HandlerDeps) error {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	builtins := map[types.OperationType]config.ItemHandler{
		types.OperationScheduleInterview:       &scheduleInterviewHandler{scheduler: deps.Scheduler},
		types.OperationCancelInterview:         &cancelInterviewHandler{interviews: deps.Interviews},
		types.OperationUpdateApplicationStatus: &applicationStatusHandler{recruitment: deps.Recruitment},
		types.OperationSendNotification:        &sendNotificationHandler{notifier: deps.Notifier, clock: deps.Clock},
		types.OperationRequestAvailability:     &requestAvailabilityHandler{availability: deps.Availability, notifier: deps.Notifier, clock: deps.Clock},
		types.OperationCloseJob:                &closeJobHandler{recruitment: deps.Recruitment},
	}

	for _, opType := range types.AllOperationTypes {
		if reg.Exists(opType.String()) {
			continue
		}
		if err := reg.Register(opType.String(), builtins[opType]); err != nil {
			return err
		}
	}
	return nil
}

func paramsAs[T types.OperationParams](params types.OperationParams) (T, error) {
	p, ok := params.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected parameters %T for %s", params, zero.OperationType())
	}
	return p, nil
}

type scheduleInterviewHandler struct {
	scheduler *scheduling.BulkScheduler
}

// Handle books the first free slot for the target candidate.
// A candidate that could not be scheduled fails the item with the scheduler's reason.
func (h *scheduleInterviewHandler) Handle(ctx context.Context, _ *types.Operation, params types.OperationParams, item types.OperationItem) error {
	p, err := paramsAs[types.ScheduleInterviewParams](params)
	if err != nil {
		return err
	}
	if h.scheduler == nil {
		return errors.New("scheduler not configured")
	}

	result, err := h.scheduler.BulkScheduleInterviews(ctx, 0, p.EmployerID, []int64{item.TargetID}, p.JobID, p.Rules)
	if err != nil {
		return err
	}
	if len(result.Scheduled) > 0 {
		return nil
	}
	if len(result.Failed) > 0 {
		return errors.New(result.Failed[0].Reason)
	}
	return errors.New(scheduling.ReasonNoSlots)
}

type cancelInterviewHandler struct {
	interviews store.InterviewStore
}

func (h *cancelInterviewHandler) Handle(ctx context.Context, _ *types.Operation, params types.OperationParams, item types.OperationItem) error {
	if _, err := paramsAs[types.CancelInterviewParams](params); err != nil {
		return err
	}

	iv, err := h.interviews.FindByID(ctx, item.TargetID)
	if err != nil {
		return err
	}
	if iv == nil {
		return custom_errors.NewNotFoundError("interview", item.TargetID)
	}
	if iv.Status != types.InterviewScheduled {
		return custom_errors.NewStateError("interview", iv.ID, string(iv.Status), "cancel")
	}

	ok, err := h.interviews.UpdateStatus(ctx, iv.ID, types.InterviewCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return custom_errors.NewNotFoundError("interview", item.TargetID)
	}
	return nil
}

type applicationStatusHandler struct {
	recruitment store.RecruitmentStore
}

func (h *applicationStatusHandler) Handle(ctx context.Context, _ *types.Operation, params types.OperationParams, item types.OperationItem) error {
	p, err := paramsAs[types.UpdateApplicationStatusParams](params)
	if err != nil {
		return err
	}

	ok, err := h.recruitment.UpdateApplicationStatus(ctx, item.TargetID, p.Status)
	if err != nil {
		return err
	}
	if !ok {
		return custom_errors.NewNotFoundError("application", item.TargetID)
	}
	return nil
}

type closeJobHandler struct {
	recruitment store.RecruitmentStore
}

// Handle fails the item when the job is missing or already closed.
func (h *closeJobHandler) Handle(ctx context.Context, _ *types.Operation, params types.OperationParams, item types.OperationItem) error {
	if _, err := paramsAs[types.CloseJobParams](params); err != nil {
		return err
	}

	ok, err := h.recruitment.CloseJob(ctx, item.TargetID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("job %d not found or already closed", item.TargetID)
	}
	return nil
}

type sendNotificationHandler struct {
	notifier Notifier
	clock    clock.Clock
}

func (h *sendNotificationHandler) Handle(ctx context.Context, op *types.Operation, params types.OperationParams, item types.OperationItem) error {
	p, err := paramsAs[types.SendNotificationParams](params)
	if err != nil {
		return err
	}
	if h.notifier == nil {
		return errors.New("notifier not configured")
	}

	return h.notifier.Notify(ctx, types.Notification{
		ID:            uuid.NewString(),
		OperationID:   op.ID,
		OperationType: op.OperationType.String(),
		RecipientID:   item.TargetID,
		RecipientType: item.TargetType,
		Channel:       p.Channel,
		Subject:       p.Subject,
		Body:          p.Body,
		CreatedAt:     h.clock.Now(),
	})
}

type requestAvailabilityHandler struct {
	availability store.AvailabilityStore
	notifier     Notifier
	clock        clock.Clock
}

const defaultAvailabilityRequest = "Please share the times you are available for an interview."

// Handle asks a candidate for availability only when none is on record.
func (h *requestAvailabilityHandler) Handle(ctx context.Context, op *types.Operation, params types.OperationParams, item types.OperationItem) error {
	p, err := paramsAs[types.RequestAvailabilityParams](params)
	if err != nil {
		return err
	}

	windows, err := h.availability.ListByCandidate(ctx, item.TargetID)
	if err != nil {
		return err
	}
	if len(windows) > 0 {
		return nil
	}
	if h.notifier == nil {
		return errors.New("notifier not configured")
	}

	now := h.clock.Now()
	n := types.Notification{
		ID:            uuid.NewString(),
		OperationID:   op.ID,
		OperationType: op.OperationType.String(),
		RecipientID:   item.TargetID,
		RecipientType: types.TargetCandidate,
		Channel:       "email",
		Subject:       "Availability request",
		Body:          p.Message,
		CreatedAt:     now,
	}
	if n.Body == "" {
		n.Body = defaultAvailabilityRequest
	}
	if p.DeadlineDays > 0 {
		deadline := now.AddDate(0, 0, p.DeadlineDays)
		n.Deadline = &deadline
	}
	return h.notifier.Notify(ctx, n)
}
