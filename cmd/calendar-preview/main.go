package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tutorlink/appointments/internal/calendar"
	"github.com/tutorlink/appointments/internal/model"
)

// Renders a sample week to week.png, for eyeballing the grid layout.
func main() {
	now := time.Now()
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}

	appts := []*model.Appointment{
		sample(monday.Add(9*time.Hour), 60, model.StatusConfirmed, model.MeetingRegularLesson),
		sample(monday.Add(14*time.Hour), 90, model.StatusPending, model.MeetingTrialLesson),
		sample(monday.AddDate(0, 0, 1).Add(10*time.Hour+30*time.Minute), 60, model.StatusConfirmed, model.MeetingExamPrep),
		sample(monday.AddDate(0, 0, 2).Add(16*time.Hour), 45, model.StatusCancelled, model.MeetingConsultation),
		sample(monday.AddDate(0, 0, 3).Add(11*time.Hour), 120, model.StatusConfirmed, model.MeetingIntensiveSession),
		sample(monday.AddDate(0, 0, 4).Add(15*time.Hour), 60, model.StatusCompleted, model.MeetingReviewSession),
	}

	events := calendar.Project(appts, calendar.ViewWeek, monday)

	data, err := calendar.RenderWeekPNG(events, monday, now)
	if err != nil {
		fmt.Printf("render week image: %v\n", err)
		os.Exit(1)
	}

	filename := "week.png"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("write %s: %v\n", filename, err)
		os.Exit(1)
	}

	fmt.Printf("saved %s (%d events, week of %s)\n", filename, len(events), monday.Format("02.01.2006"))
}

func sample(start time.Time, minutes int, status model.Status, mt model.MeetingType) *model.Appointment {
	return &model.Appointment{
		ID:              uuid.New(),
		ChatID:          1,
		TeacherID:       10,
		StudentID:       20,
		DateTime:        start,
		DurationMinutes: minutes,
		LocationType:    model.LocationOnline,
		MeetingType:     mt,
		Status:          status,
	}
}
