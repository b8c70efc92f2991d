package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorlink/appointments/internal/model"
)

// fakeSource is an in-memory AppointmentSource fixture.
type fakeSource struct {
	appts []*model.Appointment
	err   error
}

func (f *fakeSource) ActiveBetween(_ context.Context, teacherID, studentID int64, from, to time.Time) ([]*model.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.Appointment
	for _, a := range f.appts {
		if !a.Active() {
			continue
		}
		involved := a.TeacherID == teacherID || a.StudentID == teacherID ||
			a.TeacherID == studentID || a.StudentID == studentID
		if involved && a.DateTime.Before(to) && a.End().After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

func activeAppt(teacherID, studentID int64, start time.Time, minutes int, status model.Status) *model.Appointment {
	return &model.Appointment{
		TeacherID:       teacherID,
		StudentID:       studentID,
		DateTime:        start,
		DurationMinutes: minutes,
		Status:          status,
	}
}

func TestCheck_AllFreeWithoutAppointments(t *testing.T) {
	gen := NewSlotGenerator(DefaultBusinessHours(), 30)
	checker := NewAvailabilityChecker(gen, &fakeSource{})

	slots, err := checker.Check(context.Background(), date(t, time.Monday), 60, 10, 20)
	require.NoError(t, err)
	require.Len(t, slots, 26)
	for _, s := range slots {
		require.True(t, s.Available)
		require.Empty(t, s.Reason)
		require.Equal(t, time.Hour, s.End.Sub(s.Start))
	}
}

func TestCheck_MarksOverlappingSlotsOccupied(t *testing.T) {
	mon := date(t, time.Monday)
	src := &fakeSource{appts: []*model.Appointment{
		activeAppt(10, 20, mon.Add(14*time.Hour), 60, model.StatusConfirmed),
	}}
	checker := NewAvailabilityChecker(NewSlotGenerator(DefaultBusinessHours(), 30), src)

	slots, err := checker.Check(context.Background(), mon, 60, 10, 20)
	require.NoError(t, err)

	for _, s := range slots {
		overlaps := s.Start.Before(mon.Add(15*time.Hour)) && s.End.After(mon.Add(14*time.Hour))
		if overlaps {
			require.False(t, s.Available, "slot %v overlaps a confirmed appointment", s.Start)
			require.Equal(t, "Occupied", s.Reason)
		} else {
			require.True(t, s.Available, "slot %v should be free", s.Start)
		}
	}
}

func TestCheck_OtherParticipantBlocksToo(t *testing.T) {
	mon := date(t, time.Monday)
	// student 20 has a lesson with a different teacher
	src := &fakeSource{appts: []*model.Appointment{
		activeAppt(99, 20, mon.Add(10*time.Hour), 90, model.StatusPending),
	}}
	checker := NewAvailabilityChecker(NewSlotGenerator(DefaultBusinessHours(), 30), src)

	slots, err := checker.Check(context.Background(), mon, 30, 10, 20)
	require.NoError(t, err)

	for _, s := range slots {
		if s.Start.Equal(mon.Add(10 * time.Hour)) {
			require.False(t, s.Available)
		}
	}
}

func TestCheck_CancelledAppointmentsDoNotBlock(t *testing.T) {
	mon := date(t, time.Monday)
	src := &fakeSource{appts: []*model.Appointment{
		activeAppt(10, 20, mon.Add(14*time.Hour), 60, model.StatusCancelled),
		activeAppt(10, 20, mon.Add(16*time.Hour), 60, model.StatusCompleted),
	}}
	checker := NewAvailabilityChecker(NewSlotGenerator(DefaultBusinessHours(), 30), src)

	slots, err := checker.Check(context.Background(), mon, 60, 10, 20)
	require.NoError(t, err)
	for _, s := range slots {
		require.True(t, s.Available)
	}
}

func TestCheck_NeverOffersCommittedInterval(t *testing.T) {
	mon := date(t, time.Monday)
	src := &fakeSource{appts: []*model.Appointment{
		activeAppt(10, 20, mon.Add(9*time.Hour+30*time.Minute), 45, model.StatusConfirmed),
		activeAppt(10, 21, mon.Add(18*time.Hour), 120, model.StatusPending),
	}}
	checker := NewAvailabilityChecker(NewSlotGenerator(DefaultBusinessHours(), 30), src)

	slots, err := checker.Check(context.Background(), mon, 60, 10, 20)
	require.NoError(t, err)

	existing, _ := src.ActiveBetween(context.Background(), 10, 20, mon, mon.AddDate(0, 0, 1))
	for _, s := range slots {
		if !s.Available {
			continue
		}
		for _, a := range existing {
			require.False(t, a.Overlaps(s.Start, 60),
				"available slot %v overlaps committed appointment at %v", s.Start, a.DateTime)
		}
	}
}
