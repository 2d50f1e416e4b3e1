package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/store/memory"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/stretchr/testify/require"
)

// sunday noon; the following Monday is 2025-01-06
var testNow = time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	clock        *clock.Fixed
	availability *memory.AvailabilityStore
	interviews   *memory.InterviewStore
	conflicts    *memory.ConflictStore
	runs         *memory.SchedulingRunStore
	recruitment  *memory.RecruitmentStore

	slots     *SlotGenerator
	detector  *ConflictDetector
	advisor   *ResolutionAdvisor
	scheduler *BulkScheduler
	runSvc    *RunService
	employers *EmployerAccess
	windows   *AvailabilityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:       clock.NewFixed(testNow),
		recruitment: memory.NewRecruitmentStore(),
	}
	env.availability = memory.NewAvailabilityStore(env.clock)
	env.interviews = memory.NewInterviewStore(env.clock)
	env.conflicts = memory.NewConflictStore(env.clock)
	env.runs = memory.NewSchedulingRunStore(env.clock)

	log := logger.Discard()
	env.slots = NewSlotGenerator(env.availability, env.interviews, env.clock, log)
	env.detector = NewConflictDetector(env.interviews)
	env.advisor = NewResolutionAdvisor(env.conflicts, env.slots, env.detector, env.clock, log)
	env.scheduler = NewBulkScheduler(env.slots, env.detector, env.advisor, env.interviews, env.recruitment, env.runs, env.clock, log)
	env.employers = NewEmployerAccess(env.recruitment)
	env.runSvc = NewRunService(env.runs, env.scheduler, env.employers)
	env.windows = NewAvailabilityService(env.availability)
	env.recruitment.AddEmployer(types.Employer{ID: employer, Owner: "recruiter", Name: "Acme"})
	return env
}

func (e *testEnv) addWindow(t *testing.T, candidateID int64, day, start, end, tz string) {
	t.Helper()
	_, err := e.windows.SetAvailability(context.Background(), types.CandidateAvailability{
		CandidateID: candidateID, DayOfWeek: day, StartTime: start, EndTime: end, Timezone: tz,
	})
	require.NoError(t, err)
}

func (e *testEnv) addInterview(t *testing.T, employerID, candidateID int64, at time.Time, duration int) int64 {
	t.Helper()
	id, err := e.interviews.Create(context.Background(), &types.Interview{
		EmployerID: employerID, CandidateID: candidateID, ScheduledAt: at, Duration: duration,
		Status: types.InterviewScheduled, Type: types.InterviewTypeVideo,
	})
	require.NoError(t, err)
	return id
}

func monday(h, m int) time.Time {
	return time.Date(2025, 1, 6, h, m, 0, 0, time.UTC)
}
