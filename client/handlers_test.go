package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/message_broaker"
	"github.com/RezaEskandarii/gohire/internal/scheduling"
	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/internal/store/memory"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []types.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n types.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

type handlerEnv struct {
	*fixture
	availability *memory.AvailabilityStore
	interviews   *memory.InterviewStore
	recruitment  *memory.RecruitmentStore
	notifier     *recordingNotifier
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	env := &handlerEnv{fixture: newFixture(t, ExecutorConfig{}, nil), notifier: &recordingNotifier{}}
	env.availability = memory.NewAvailabilityStore(env.clock)
	env.interviews = memory.NewInterviewStore(env.clock)
	env.recruitment = memory.NewRecruitmentStore()

	log := logger.Discard()
	slots := scheduling.NewSlotGenerator(env.availability, env.interviews, env.clock, log)
	detector := scheduling.NewConflictDetector(env.interviews)
	advisor := scheduling.NewResolutionAdvisor(memory.NewConflictStore(env.clock), slots, detector, env.clock, log)
	scheduler := scheduling.NewBulkScheduler(slots, detector, advisor, env.interviews, env.recruitment, memory.NewSchedulingRunStore(env.clock), env.clock, log)

	require.NoError(t, RegisterBuiltinHandlers(env.handlers, HandlerDeps{
		Scheduler:    scheduler,
		Interviews:   env.interviews,
		Recruitment:  env.recruitment,
		Availability: env.availability,
		Notifier:     env.notifier,
		Clock:        env.clock,
	}))
	return env
}

func (env *handlerEnv) run(t *testing.T, opType types.OperationType, params any, targets ...int64) []types.OperationItem {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)

	res, err := env.manager.CreateOperation(context.Background(), owner, types.CreateOperationRequest{
		OperationType:   opType,
		TargetIDs:       targets,
		TargetType:      opType.TargetType(),
		OperationParams: raw,
	})
	require.NoError(t, err)
	env.executor.Wait()

	op := env.operation(t, res.OperationID)
	require.Equal(t, state.OperationCompleted, op.Status)
	requireCountersConsistent(t, op)
	return env.items(t, res.OperationID)
}

func TestScheduleInterviewHandler(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()
	_, err := env.availability.Create(ctx, &types.CandidateAvailability{
		CandidateID: 1, DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00", Timezone: "UTC", IsActive: true,
	})
	require.NoError(t, err)
	env.recruitment.AddApplication(types.Application{CandidateID: 1, JobID: 100, EmployerID: 7})

	items := env.run(t, types.OperationScheduleInterview, types.ScheduleInterviewParams{EmployerID: 7, JobID: 100}, 1, 2)

	assert.Equal(t, []state.ItemStatus{state.ItemCompleted, state.ItemFailed}, itemStatuses(items))
	require.NotNil(t, items[1].ErrorMessage)
	assert.Equal(t, scheduling.ReasonNoApplication, *items[1].ErrorMessage)

	booked, err := env.interviews.ListScheduledForCandidate(ctx, 1, fixtureNow, fixtureNow.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), booked[0].ScheduledAt)
}

func TestCancelInterviewHandler(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()
	id, err := env.interviews.Create(ctx, &types.Interview{
		EmployerID: 7, CandidateID: 1, ScheduledAt: fixtureNow.Add(24 * time.Hour), Duration: 60, Status: types.InterviewScheduled,
	})
	require.NoError(t, err)

	items := env.run(t, types.OperationCancelInterview, types.CancelInterviewParams{Reason: "position filled"}, id, 999)
	assert.Equal(t, []state.ItemStatus{state.ItemCompleted, state.ItemFailed}, itemStatuses(items))

	iv, err := env.interviews.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.InterviewCancelled, iv.Status)

	items = env.run(t, types.OperationCancelInterview, types.CancelInterviewParams{}, id)
	assert.Equal(t, state.ItemFailed, items[0].Status, "already cancelled")
}

func TestApplicationStatusHandler(t *testing.T) {
	env := newHandlerEnv(t)
	appID := env.recruitment.AddApplication(types.Application{CandidateID: 1, JobID: 100, EmployerID: 7})

	items := env.run(t, types.OperationUpdateApplicationStatus, types.UpdateApplicationStatusParams{Status: "screening"}, appID, 404)
	assert.Equal(t, []state.ItemStatus{state.ItemCompleted, state.ItemFailed}, itemStatuses(items))

	app, err := env.recruitment.FindApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, "screening", app.Status)
}

func TestCloseJobHandler(t *testing.T) {
	env := newHandlerEnv(t)
	env.recruitment.AddJob(5)

	items := env.run(t, types.OperationCloseJob, types.CloseJobParams{}, 5, 5)
	assert.Equal(t, []state.ItemStatus{state.ItemCompleted, state.ItemFailed}, itemStatuses(items))
	assert.Equal(t, "closed", env.recruitment.JobStatus(5))
}

func TestSendNotificationHandler(t *testing.T) {
	env := newHandlerEnv(t)

	env.run(t, types.OperationSendNotification, types.SendNotificationParams{Channel: "sms", Body: "see you tomorrow"}, 3, 4)

	require.Len(t, env.notifier.sent, 2)
	for i, n := range env.notifier.sent {
		assert.Equal(t, int64(i+3), n.RecipientID)
		assert.Equal(t, "sms", n.Channel)
		assert.Equal(t, "see you tomorrow", n.Body)
		assert.NotEmpty(t, n.ID)
	}
}

func TestRequestAvailabilityHandler_OnlyCandidatesWithoutWindows(t *testing.T) {
	env := newHandlerEnv(t)
	_, err := env.availability.Create(context.Background(), &types.CandidateAvailability{
		CandidateID: 1, DayOfWeek: "friday", StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", IsActive: true,
	})
	require.NoError(t, err)

	items := env.run(t, types.OperationRequestAvailability, types.RequestAvailabilityParams{DeadlineDays: 3}, 1, 2)
	assert.Equal(t, []state.ItemStatus{state.ItemCompleted, state.ItemCompleted}, itemStatuses(items))

	require.Len(t, env.notifier.sent, 1)
	n := env.notifier.sent[0]
	assert.Equal(t, int64(2), n.RecipientID)
	assert.Equal(t, defaultAvailabilityRequest, n.Body)
	require.NotNil(t, n.Deadline)
	assert.Equal(t, fixtureNow.AddDate(0, 0, 3), *n.Deadline)
}

func TestRegisterBuiltinHandlers_KeepsCustomHandler(t *testing.T) {
	f := newFixture(t, ExecutorConfig{}, nil)
	called := false
	f.register(t, types.OperationCloseJob, func(context.Context, *types.Operation, types.OperationParams, types.OperationItem) error {
		called = true
		return nil
	})
	require.NoError(t, RegisterBuiltinHandlers(f.handlers, HandlerDeps{}))

	assert.Len(t, f.handlers.List(), len(types.AllOperationTypes))
	h, err := f.handlers.Get(types.OperationCloseJob.String())
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), &types.Operation{}, types.CloseJobParams{}, types.OperationItem{}))
	assert.True(t, called)
}

func TestBrokerNotifier(t *testing.T) {
	broker := message_broaker.NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := NewBrokerNotifier(broker, "gohire.notifications")
	require.NoError(t, notifier.Notify(ctx, types.Notification{ID: "n-1", RecipientID: 9, Channel: "email", Body: "hello"}))

	ch, err := broker.Consume(ctx, "gohire.notifications")
	require.NoError(t, err)
	select {
	case raw := <-ch:
		var got types.Notification
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "n-1", got.ID)
		assert.Equal(t, int64(9), got.RecipientID)
	case <-time.After(time.Second):
		t.Fatal("notification not published")
	}
}
