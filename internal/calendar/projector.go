// Package calendar projects committed appointments into renderable grid
// views. Projection is a pure function of the appointment list and the
// anchor date; it keeps no state of its own.
package calendar

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tutorlink/appointments/internal/model"
)

type View string

const (
	ViewDay    View = "day"
	ViewWeek   View = "week"
	ViewMonth  View = "month"
	ViewAgenda View = "agenda"
)

// agendaDays is how far ahead the agenda view looks from its anchor.
const agendaDays = 30

// Event is one renderable cell. Row/offset place it on an hour grid so
// overlapping and multi-hour events lay out the same on every render.
type Event struct {
	AppointmentID uuid.UUID          `json:"appointment_id"`
	ChatID        int64              `json:"chat_id"`
	Start         time.Time          `json:"start"`
	End           time.Time          `json:"end"`
	Status        model.Status       `json:"status"`
	MeetingType   model.MeetingType  `json:"meeting_type"`
	LocationType  model.LocationType `json:"location_type"`
	Color         string             `json:"color"`

	DayIndex      int `json:"day_index"`      // column: days since the view's first day
	Row           int `json:"row"`            // hour row within the day
	OffsetMinutes int `json:"offset_minutes"` // minutes past the row's hour
	SpanMinutes   int `json:"span_minutes"`
}

// StatusColor returns the deterministic display color for a status.
func StatusColor(s model.Status) string {
	switch s {
	case model.StatusConfirmed:
		return "#22c55e" // green
	case model.StatusPending:
		return "#f59e0b" // amber
	case model.StatusCompleted, model.StatusWaitingToComplete:
		return "#9ca3af" // gray
	case model.StatusCancelled:
		return "#ef4444" // red
	}
	return "#9ca3af"
}

// Range is the half-open [From, To) interval a view covers.
type Range struct {
	From time.Time
	To   time.Time
}

// ViewRange resolves the interval covered by a view anchored at a date.
// Weeks start on Monday, matching the rendered grid.
func ViewRange(view View, anchor time.Time) Range {
	day := startOfDay(anchor)
	switch view {
	case ViewDay:
		return Range{From: day, To: day.AddDate(0, 0, 1)}
	case ViewWeek:
		start := startOfWeek(day)
		return Range{From: start, To: start.AddDate(0, 0, 7)}
	case ViewMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return Range{From: start, To: start.AddDate(0, 1, 0)}
	default: // agenda
		return Range{From: day, To: day.AddDate(0, 0, agendaDays)}
	}
}

// Project maps appointments intersecting the view's range onto grid events,
// ordered by start time with the id as a deterministic tie-breaker.
func Project(appts []*model.Appointment, view View, anchor time.Time) []Event {
	r := ViewRange(view, anchor)

	var events []Event
	for _, a := range appts {
		if !a.DateTime.Before(r.To) || !a.End().After(r.From) {
			continue
		}
		events = append(events, Event{
			AppointmentID: a.ID,
			ChatID:        a.ChatID,
			Start:         a.DateTime,
			End:           a.End(),
			Status:        a.Status,
			MeetingType:   a.MeetingType,
			LocationType:  a.LocationType,
			Color:         StatusColor(a.Status),
			DayIndex:      daysBetween(r.From, a.DateTime),
			Row:           a.DateTime.Hour(),
			OffsetMinutes: a.DateTime.Minute(),
			SpanMinutes:   a.DurationMinutes,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].AppointmentID.String() < events[j].AppointmentID.String()
	})
	return events
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek normalizes to the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	daysSinceMonday := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}
	return startOfDay(t).AddDate(0, 0, -daysSinceMonday)
}

// daysBetween counts calendar days from `from` up to t's day. Dividing the
// elapsed hours by 24 would lose a day after a DST spring-forward, so walk
// by dates instead.
func daysBetween(from, t time.Time) int {
	day := startOfDay(t)
	n := 0
	for d := startOfDay(from); d.Before(day); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}
