package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tutorlink/appointments/internal/model"
)

func appt(start time.Time, minutes int, status model.Status) *model.Appointment {
	return &model.Appointment{
		ID:              uuid.New(),
		ChatID:          1,
		TeacherID:       10,
		StudentID:       20,
		DateTime:        start,
		DurationMinutes: minutes,
		MeetingType:     model.MeetingRegularLesson,
		LocationType:    model.LocationOnline,
		Status:          status,
	}
}

func TestStatusColor(t *testing.T) {
	require.Equal(t, "#22c55e", StatusColor(model.StatusConfirmed))
	require.Equal(t, "#f59e0b", StatusColor(model.StatusPending))
	require.Equal(t, "#9ca3af", StatusColor(model.StatusCompleted))
	require.Equal(t, "#ef4444", StatusColor(model.StatusCancelled))
}

func TestViewRange(t *testing.T) {
	// 2025-06-04 is a Wednesday
	anchor := time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC)

	day := ViewRange(ViewDay, anchor)
	require.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), day.From)
	require.Equal(t, 24*time.Hour, day.To.Sub(day.From))

	week := ViewRange(ViewWeek, anchor)
	require.Equal(t, time.Monday, week.From.Weekday())
	require.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), week.From)
	require.Equal(t, 7*24*time.Hour, week.To.Sub(week.From))

	month := ViewRange(ViewMonth, anchor)
	require.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), month.From)
	require.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), month.To)

	agenda := ViewRange(ViewAgenda, anchor)
	require.Equal(t, 30*24*time.Hour, agenda.To.Sub(agenda.From))
}

func TestProject_FiltersToRange(t *testing.T) {
	anchor := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	inside := appt(anchor.Add(10*time.Hour), 60, model.StatusConfirmed)
	outside := appt(anchor.AddDate(0, 0, 3).Add(10*time.Hour), 60, model.StatusConfirmed)

	events := Project([]*model.Appointment{inside, outside}, ViewDay, anchor)
	require.Len(t, events, 1)
	require.Equal(t, inside.ID, events[0].AppointmentID)
}

func TestProject_GridPosition(t *testing.T) {
	// Wednesday 14:45, 90 minutes, in the week anchored at the same date
	anchor := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	a := appt(anchor.Add(14*time.Hour+45*time.Minute), 90, model.StatusConfirmed)

	events := Project([]*model.Appointment{a}, ViewWeek, anchor)
	require.Len(t, events, 1)

	ev := events[0]
	require.Equal(t, 2, ev.DayIndex) // Monday=0, Wednesday=2
	require.Equal(t, 14, ev.Row)
	require.Equal(t, 45, ev.OffsetMinutes)
	require.Equal(t, 90, ev.SpanMinutes)
	require.Equal(t, "#22c55e", ev.Color)
}

func TestProject_DayIndexAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// clocks spring forward on 2026-03-08; March 15 is still the 15th column
	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	a := appt(time.Date(2026, 3, 15, 10, 0, 0, 0, loc), 60, model.StatusConfirmed)

	events := Project([]*model.Appointment{a}, ViewMonth, anchor)
	require.Len(t, events, 1)
	require.Equal(t, 14, events[0].DayIndex)

	agenda := Project([]*model.Appointment{a}, ViewAgenda, anchor)
	require.Len(t, agenda, 1)
	require.Equal(t, 14, agenda[0].DayIndex)
}

func TestProject_DeterministicOrder(t *testing.T) {
	anchor := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	sameStart := anchor.Add(10 * time.Hour)

	a := appt(sameStart, 60, model.StatusConfirmed)
	b := appt(sameStart, 30, model.StatusPending)
	c := appt(anchor.Add(9*time.Hour), 60, model.StatusConfirmed)

	first := Project([]*model.Appointment{a, b, c}, ViewWeek, anchor)
	second := Project([]*model.Appointment{c, b, a}, ViewWeek, anchor)

	require.Equal(t, first, second)
	require.Equal(t, c.ID, first[0].AppointmentID)
}

func TestProject_AllStatusesKeepColors(t *testing.T) {
	anchor := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	statuses := []model.Status{
		model.StatusPending, model.StatusConfirmed,
		model.StatusWaitingToComplete, model.StatusCompleted, model.StatusCancelled,
	}

	var appts []*model.Appointment
	for i, st := range statuses {
		appts = append(appts, appt(anchor.Add(time.Duration(9+i)*time.Hour), 60, st))
	}

	events := Project(appts, ViewDay, anchor)
	require.Len(t, events, len(statuses))
	for i, ev := range events {
		require.Equal(t, StatusColor(statuses[i]), ev.Color)
	}
}

func TestRenderWeekPNG_Smoke(t *testing.T) {
	anchor := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	appts := []*model.Appointment{
		appt(anchor.Add(9*time.Hour), 60, model.StatusConfirmed),
		appt(anchor.AddDate(0, 0, 1).Add(14*time.Hour+30*time.Minute), 90, model.StatusPending),
	}
	events := Project(appts, ViewWeek, anchor)

	data, err := RenderWeekPNG(events, anchor, anchor.Add(26*time.Hour))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}
