package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationType_TargetType(t *testing.T) {
	assert.Equal(t, TargetCandidate, OperationScheduleInterview.TargetType())
	assert.Equal(t, TargetInterview, OperationCancelInterview.TargetType())
	assert.Equal(t, TargetApplication, OperationUpdateApplicationStatus.TargetType())
	assert.Equal(t, TargetJob, OperationCloseJob.TargetType())
	assert.Equal(t, TargetType(""), OperationType("export").TargetType())
}

func TestOperationType_IsKnown(t *testing.T) {
	for _, op := range AllOperationTypes {
		assert.True(t, op.IsKnown(), op)
	}
	assert.False(t, OperationType("delete_everything").IsKnown())
	assert.Len(t, AllOperationTypes, 6)
}

func TestDecodeOperationParams_ScheduleInterview(t *testing.T) {
	raw := json.RawMessage(`{"employer_id": 9, "job_id": 3, "rules": {"duration": 45, "buffer_minutes": 15}}`)

	params, err := DecodeOperationParams(OperationScheduleInterview, raw)
	require.NoError(t, err)

	p, ok := params.(ScheduleInterviewParams)
	require.True(t, ok)
	assert.Equal(t, int64(9), p.EmployerID)
	assert.Equal(t, 45, p.Rules.EffectiveDuration())
	assert.Equal(t, OperationScheduleInterview, p.OperationType())
}

func TestDecodeOperationParams_MissingEmployer(t *testing.T) {
	_, err := DecodeOperationParams(OperationScheduleInterview, json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestDecodeOperationParams_EmptyPayload(t *testing.T) {
	params, err := DecodeOperationParams(OperationCancelInterview, nil)
	require.NoError(t, err)
	assert.Equal(t, CancelInterviewParams{}, params)
}

func TestDecodeOperationParams_InvalidEnum(t *testing.T) {
	_, err := DecodeOperationParams(OperationUpdateApplicationStatus, json.RawMessage(`{"status": "promoted"}`))
	assert.Error(t, err)

	_, err = DecodeOperationParams(OperationSendNotification, json.RawMessage(`{"channel": "pigeon", "body": "hi"}`))
	assert.Error(t, err)
}

func TestDecodeOperationParams_UnknownType(t *testing.T) {
	_, err := DecodeOperationParams("export", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation type")
}

func TestDecodeOperationParams_BadJSON(t *testing.T) {
	_, err := DecodeOperationParams(OperationCloseJob, json.RawMessage(`{"reason":`))
	assert.Error(t, err)
}

func TestSchedulingRules_Validate(t *testing.T) {
	assert.NoError(t, SchedulingRules{}.Validate())
	assert.Error(t, SchedulingRules{Duration: -1}.Validate())
	assert.Error(t, SchedulingRules{PreferredTimeSlots: []PreferredTimeSlot{{StartTime: "09:00"}}}.Validate())
	assert.Error(t, SchedulingRules{PreferredTimeSlots: []PreferredTimeSlot{{DayOfWeek: "funday", StartTime: "09:00", EndTime: "10:00"}}}.Validate())
	assert.Equal(t, DefaultInterviewDuration, SchedulingRules{}.EffectiveDuration())
	assert.Equal(t, InterviewTypeVideo, SchedulingRules{}.EffectiveInterviewType())
}

func TestWeekdayRoundTrip(t *testing.T) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		parsed, err := ParseWeekday(WeekdayName(d))
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
	_, err := ParseWeekday("someday")
	assert.Error(t, err)

	parsed, err := ParseWeekday(" Monday ")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, parsed)
}

func TestInterview_End(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	iv := Interview{ScheduledAt: start, Duration: 45}
	assert.Equal(t, start.Add(45*time.Minute), iv.End())
}

func TestAvailabilityUpdate_Apply(t *testing.T) {
	active := false
	start := "10:00"
	day := "Tuesday"
	base := CandidateAvailability{DayOfWeek: "monday", StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", IsActive: true}

	updated := AvailabilityUpdate{DayOfWeek: &day, StartTime: &start, IsActive: &active}.Apply(base)

	assert.Equal(t, "tuesday", updated.DayOfWeek)
	assert.Equal(t, "10:00", updated.StartTime)
	assert.Equal(t, "12:00", updated.EndTime)
	assert.False(t, updated.IsActive)
}
