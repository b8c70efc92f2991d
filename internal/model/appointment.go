package model

import (
	"time"

	"github.com/google/uuid"
)

type LocationType string

const (
	LocationOnline       LocationType = "online"
	LocationStudentPlace LocationType = "student_place"
	LocationTutorPlace   LocationType = "tutor_place"
	LocationLibrary      LocationType = "library"
	LocationCafe         LocationType = "cafe"
	LocationPublic       LocationType = "public_location"
)

func (l LocationType) Valid() bool {
	switch l {
	case LocationOnline, LocationStudentPlace, LocationTutorPlace, LocationLibrary, LocationCafe, LocationPublic:
		return true
	}
	return false
}

type MeetingType string

const (
	MeetingFirstMeeting     MeetingType = "first_meeting"
	MeetingRegularLesson    MeetingType = "regular_lesson"
	MeetingTrialLesson      MeetingType = "trial_lesson"
	MeetingExamPrep         MeetingType = "exam_prep"
	MeetingConsultation     MeetingType = "consultation"
	MeetingIntensiveSession MeetingType = "intensive_session"
	MeetingGroupLesson      MeetingType = "group_lesson"
	MeetingReviewSession    MeetingType = "review_session"
)

func (m MeetingType) Valid() bool {
	switch m {
	case MeetingFirstMeeting, MeetingRegularLesson, MeetingTrialLesson, MeetingExamPrep,
		MeetingConsultation, MeetingIntensiveSession, MeetingGroupLesson, MeetingReviewSession:
		return true
	}
	return false
}

type RecurringPattern string

const (
	RecurringNone     RecurringPattern = "none"
	RecurringWeekly   RecurringPattern = "weekly"
	RecurringBiWeekly RecurringPattern = "bi_weekly"
	RecurringMonthly  RecurringPattern = "monthly"
)

// Side identifies which participant of the conversation is acting.
type Side string

const (
	SideTeacher Side = "teacher"
	SideStudent Side = "student"
)

type Appointment struct {
	ID        uuid.UUID `json:"id"`
	ChatID    int64     `json:"chat_id"`
	TeacherID int64     `json:"teacher_id"`
	StudentID int64     `json:"student_id"`

	DateTime        time.Time    `json:"date_time"`
	DurationMinutes int          `json:"duration_minutes"`
	LocationType    LocationType `json:"location_type"`
	Location        string       `json:"location"`
	// SpecificLocation refines Location ("room 214", "second floor window table").
	SpecificLocation string      `json:"specific_location,omitempty"`
	MeetingType      MeetingType `json:"meeting_type"`

	Status             Status `json:"status"`
	TeacherReady       bool   `json:"teacher_ready"`
	StudentReady       bool   `json:"student_ready"`
	TeacherCompleted   bool   `json:"teacher_completed"`
	StudentCompleted   bool   `json:"student_completed"`
	CancellationReason string `json:"cancellation_reason,omitempty"`

	IsRecurring      bool             `json:"is_recurring"`
	RecurringPattern RecurringPattern `json:"recurring_pattern"`
	RecurringEndDate *time.Time       `json:"recurring_end_date"` // nil unless recurring
	SeriesID         *uuid.UUID       `json:"series_id"`          // shared by all occurrences of one series

	Price                int      `json:"price"` // minor currency units
	Currency             string   `json:"currency"`
	SpecialRate          bool     `json:"special_rate"`
	IsTrialLesson        bool     `json:"is_trial_lesson"`
	Notes                string   `json:"notes,omitempty"`
	Agenda               string   `json:"agenda,omitempty"`
	PreparationMaterials []string `json:"preparation_materials,omitempty"`
	RequiredMaterials    []string `json:"required_materials,omitempty"`
	ReminderTime         int      `json:"reminder_time"` // minutes before start

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// End returns the exclusive end of the appointment interval.
func (a *Appointment) End() time.Time {
	return a.DateTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the [DateTime, End) intervals of two appointments intersect.
func (a *Appointment) Overlaps(start time.Time, durationMinutes int) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return a.DateTime.Before(end) && start.Before(a.End())
}

// IsParticipant checks that the user belongs to the appointment's conversation.
func (a *Appointment) IsParticipant(userID int64) bool {
	return a.TeacherID == userID || a.StudentID == userID
}

// SideOf maps a participant id to its side, empty string for outsiders.
func (a *Appointment) SideOf(userID int64) Side {
	switch userID {
	case a.TeacherID:
		return SideTeacher
	case a.StudentID:
		return SideStudent
	}
	return ""
}

// BothCompleted is true once each side has confirmed the session took place.
func (a *Appointment) BothCompleted() bool {
	return a.TeacherCompleted && a.StudentCompleted
}

// BothReady mirrors BothCompleted for the pre-session readiness cue.
func (a *Appointment) BothReady() bool {
	return a.TeacherReady && a.StudentReady
}

// Active statuses participate in overlap and availability checks.
func (a *Appointment) Active() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}
