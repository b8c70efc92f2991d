package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorlink/appointments/internal/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testDetector(src AppointmentSource, now time.Time) *ConflictDetector {
	return NewConflictDetector(DefaultBusinessHours(), DefaultPolicy(), src).WithClock(fixedClock(now))
}

func candidateAt(start time.Time, minutes int) Candidate {
	return Candidate{
		TeacherID:       10,
		StudentID:       20,
		DateTime:        start,
		DurationMinutes: minutes,
	}
}

func TestDetect_CleanCandidate(t *testing.T) {
	mon := date(t, time.Monday)
	now := mon.Add(-24 * time.Hour)
	det := testDetector(&fakeSource{}, now)

	conflicts, err := det.Detect(context.Background(), candidateAt(mon.Add(14*time.Hour), 60))
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestDetect_OutsideBusinessHours(t *testing.T) {
	mon := date(t, time.Monday)
	det := testDetector(&fakeSource{}, mon.Add(-24*time.Hour))

	// 23:00 on a weekday
	conflicts, err := det.Detect(context.Background(), candidateAt(mon.Add(23*time.Hour), 60))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, model.ConflictBusinessHours, conflicts[0].Type)
	require.Equal(t, model.SeverityError, conflicts[0].Severity)
	require.True(t, model.HasBlocking(conflicts))
}

func TestDetect_SpillPastClosingIsBlocked(t *testing.T) {
	sat := date(t, time.Saturday)
	det := testDetector(&fakeSource{}, sat.Add(-24*time.Hour))

	// 16:30 + 60min crosses the 17:00 Saturday close
	conflicts, err := det.Detect(context.Background(), candidateAt(sat.Add(16*time.Hour+30*time.Minute), 60))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, model.ConflictBusinessHours, conflicts[0].Type)
}

func TestDetect_ShortNoticeIsWarningOnly(t *testing.T) {
	mon := date(t, time.Monday)
	start := mon.Add(14 * time.Hour)
	det := testDetector(&fakeSource{}, start.Add(-time.Hour)) // one hour before, buffer is two

	conflicts, err := det.Detect(context.Background(), candidateAt(start, 60))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, model.ConflictBufferViolation, conflicts[0].Type)
	require.Equal(t, model.SeverityWarning, conflicts[0].Severity)
	require.False(t, model.HasBlocking(conflicts))
}

func TestDetect_OverlapIsBlocking(t *testing.T) {
	mon := date(t, time.Monday)
	start := mon.Add(14 * time.Hour)
	src := &fakeSource{appts: []*model.Appointment{
		activeAppt(10, 20, start.Add(30*time.Minute), 60, model.StatusConfirmed),
	}}
	det := testDetector(src, mon.Add(-24*time.Hour))

	conflicts, err := det.Detect(context.Background(), candidateAt(start, 60))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, model.ConflictOverlap, conflicts[0].Type)
	require.Equal(t, model.SeverityError, conflicts[0].Severity)
}

func TestDetect_BackToBackIsNotOverlap(t *testing.T) {
	mon := date(t, time.Monday)
	start := mon.Add(14 * time.Hour)
	src := &fakeSource{appts: []*model.Appointment{
		activeAppt(10, 20, start.Add(-time.Hour), 60, model.StatusConfirmed), // ends exactly at start
		activeAppt(10, 20, start.Add(time.Hour), 60, model.StatusPending),    // begins exactly at end
	}}
	det := testDetector(src, mon.Add(-24*time.Hour))

	conflicts, err := det.Detect(context.Background(), candidateAt(start, 60))
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestDetect_RecurringRules(t *testing.T) {
	mon := date(t, time.Monday)
	start := mon.Add(14 * time.Hour)
	det := testDetector(&fakeSource{}, mon.Add(-24*time.Hour))

	endBefore := start.Add(-time.Hour)
	twoYears := start.AddDate(2, 0, 0)
	validEnd := start.AddDate(0, 2, 0)

	cases := []struct {
		name    string
		cand    Candidate
		message string
	}{
		{
			name: "pattern none",
			cand: Candidate{
				TeacherID: 10, StudentID: 20, DateTime: start, DurationMinutes: 60,
				IsRecurring: true, RecurringPattern: model.RecurringNone, RecurringEndDate: &validEnd,
			},
			message: "recurring appointment requires a pattern",
		},
		{
			name: "missing end date",
			cand: Candidate{
				TeacherID: 10, StudentID: 20, DateTime: start, DurationMinutes: 60,
				IsRecurring: true, RecurringPattern: model.RecurringWeekly,
			},
			message: "recurring appointment requires an end date",
		},
		{
			name: "end before start",
			cand: Candidate{
				TeacherID: 10, StudentID: 20, DateTime: start, DurationMinutes: 60,
				IsRecurring: true, RecurringPattern: model.RecurringWeekly, RecurringEndDate: &endBefore,
			},
			message: "recurring end date must be after the first occurrence",
		},
		{
			name: "too many occurrences",
			cand: Candidate{
				TeacherID: 10, StudentID: 20, DateTime: start, DurationMinutes: 60,
				IsRecurring: true, RecurringPattern: model.RecurringWeekly, RecurringEndDate: &twoYears,
			},
			message: "maximum is 52",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conflicts, err := det.Detect(context.Background(), tc.cand)
			require.NoError(t, err)
			require.Len(t, conflicts, 1)
			require.Equal(t, model.ConflictRecurring, conflicts[0].Type)
			require.Equal(t, model.SeverityError, conflicts[0].Severity)
			require.Contains(t, conflicts[0].Message, tc.message)
		})
	}
}

func TestDetect_ValidRecurringSeries(t *testing.T) {
	mon := date(t, time.Monday)
	start := mon.Add(14 * time.Hour)
	end := start.AddDate(0, 2, 0)
	det := testDetector(&fakeSource{}, mon.Add(-24*time.Hour))

	cand := Candidate{
		TeacherID: 10, StudentID: 20, DateTime: start, DurationMinutes: 60,
		IsRecurring: true, RecurringPattern: model.RecurringWeekly, RecurringEndDate: &end,
	}
	conflicts, err := det.Detect(context.Background(), cand)
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestDetect_CollectsMultipleConflicts(t *testing.T) {
	mon := date(t, time.Monday)
	start := mon.Add(23 * time.Hour) // outside hours
	src := &fakeSource{appts: []*model.Appointment{
		activeAppt(10, 20, start, 60, model.StatusConfirmed),
	}}
	det := testDetector(src, start.Add(-30*time.Minute)) // and short notice

	conflicts, err := det.Detect(context.Background(), candidateAt(start, 60))
	require.NoError(t, err)
	require.Len(t, conflicts, 3)
	require.Equal(t, model.ConflictBusinessHours, conflicts[0].Type)
	require.Equal(t, model.ConflictBufferViolation, conflicts[1].Type)
	require.Equal(t, model.ConflictOverlap, conflicts[2].Type)
}
