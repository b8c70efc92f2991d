package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorlink/appointments/internal/apperr"
	"github.com/tutorlink/appointments/internal/calendar"
	"github.com/tutorlink/appointments/internal/model"
	"github.com/tutorlink/appointments/internal/notify"
	"github.com/tutorlink/appointments/internal/repository"
	"github.com/tutorlink/appointments/internal/schedule"
)

// AppointmentStore is what the service needs from persistence.
type AppointmentStore interface {
	schedule.AppointmentSource
	CreateAtomic(ctx context.Context, appts []*model.Appointment, validate func(ctx context.Context, src schedule.AppointmentSource) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filter repository.ListFilter, page, limit int) ([]*model.Appointment, int, error)
	ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]*model.Appointment, error)
	UpdateStatusCAS(ctx context.Context, a *model.Appointment, expected model.Status) error
	UpdateReadiness(ctx context.Context, id uuid.UUID, side model.Side, ready bool) (*model.Appointment, error)
}

// AppointmentService is the engine's external interface: booking,
// availability, lifecycle and calendar projection for tutoring sessions.
type AppointmentService struct {
	store    AppointmentStore
	hours    schedule.BusinessHours
	policy   schedule.Policy
	machine  *schedule.StateMachine
	checker  *schedule.AvailabilityChecker
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewAppointmentService(
	store AppointmentStore,
	hours schedule.BusinessHours,
	policy schedule.Policy,
	notifier notify.Notifier,
	logger *zap.Logger,
) *AppointmentService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	generator := schedule.NewSlotGenerator(hours, policy.SlotStepMinutes)
	return &AppointmentService{
		store:    store,
		hours:    hours,
		policy:   policy,
		machine:  schedule.NewStateMachine(policy),
		checker:  schedule.NewAvailabilityChecker(generator, store),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock (and the state machine's), for tests.
func (s *AppointmentService) WithClock(now func() time.Time) *AppointmentService {
	s.now = now
	s.machine.WithClock(now)
	return s
}

// CreateRequest carries the booking parameters negotiated in the chat.
// Participant ids arrive resolved by the conversation subsystem.
type CreateRequest struct {
	ChatID    int64
	TeacherID int64
	StudentID int64

	DateTime         time.Time
	DurationMinutes  int
	LocationType     model.LocationType
	Location         string
	SpecificLocation string
	MeetingType      model.MeetingType

	IsRecurring      bool
	RecurringPattern model.RecurringPattern
	RecurringEndDate *time.Time

	Price       int
	Currency    string
	SpecialRate bool
	Notes       string
	Agenda      string

	PreparationMaterials []string
	RequiredMaterials    []string
	ReminderTime         int
}

func (s *AppointmentService) validateCreate(req CreateRequest) error {
	switch {
	case req.ChatID == 0:
		return &apperr.ValidationError{Field: "chat_id", Reason: "required"}
	case req.TeacherID == 0 || req.StudentID == 0:
		return &apperr.ValidationError{Field: "participants", Reason: "both participant ids are required"}
	case req.TeacherID == req.StudentID:
		return &apperr.ValidationError{Field: "participants", Reason: "teacher and student must differ"}
	case req.DurationMinutes <= 0:
		return &apperr.ValidationError{Field: "duration", Reason: "must be positive"}
	case req.DateTime.IsZero():
		return &apperr.ValidationError{Field: "date_time", Reason: "required"}
	case !req.DateTime.After(s.now()):
		return &apperr.ValidationError{Field: "date_time", Reason: "must be in the future"}
	case !req.LocationType.Valid():
		return &apperr.ValidationError{Field: "location_type", Reason: fmt.Sprintf("unknown value %q", req.LocationType)}
	case !req.MeetingType.Valid():
		return &apperr.ValidationError{Field: "meeting_type", Reason: fmt.Sprintf("unknown value %q", req.MeetingType)}
	case req.ReminderTime < 0:
		return &apperr.ValidationError{Field: "reminder_time", Reason: "must not be negative"}
	}
	return nil
}

// CreateAppointment validates the request, re-checks conflicts against
// committed state inside the commit transaction and inserts the new
// appointment (or the whole recurring series) with status pending.
//
// Blocking conflicts come back as *apperr.ConflictError; warnings are
// returned alongside the created appointments for the caller to surface.
func (s *AppointmentService) CreateAppointment(ctx context.Context, req CreateRequest) ([]*model.Appointment, []model.Conflict, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, nil, err
	}

	base := schedule.Candidate{
		TeacherID:        req.TeacherID,
		StudentID:        req.StudentID,
		DateTime:         req.DateTime,
		DurationMinutes:  req.DurationMinutes,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern,
		RecurringEndDate: req.RecurringEndDate,
	}

	// Reject a malformed series before materializing occurrences.
	if c := schedule.ValidateRecurrence(s.policy, base); c != nil {
		return nil, nil, &apperr.ConflictError{Conflicts: []model.Conflict{*c}}
	}

	occurrences := []time.Time{req.DateTime}
	if req.IsRecurring {
		occurrences = schedule.Series{
			Start:   req.DateTime,
			Pattern: req.RecurringPattern,
			EndDate: *req.RecurringEndDate,
		}.All()
	}

	appts := s.buildAppointments(req, occurrences)

	var warnings []model.Conflict
	err := s.store.CreateAtomic(ctx, appts, func(ctx context.Context, src schedule.AppointmentSource) error {
		detector := schedule.NewConflictDetector(s.hours, s.policy, src).WithClock(s.now)

		warnings = warnings[:0]
		var all []model.Conflict
		for i, a := range appts {
			cand := base
			cand.DateTime = a.DateTime
			if i > 0 {
				// the series rule already passed on the base occurrence
				cand.IsRecurring = false
			}

			conflicts, err := detector.Detect(ctx, cand)
			if err != nil {
				return fmt.Errorf("detect conflicts: %w", err)
			}
			for _, c := range conflicts {
				if len(appts) > 1 {
					c.Message = fmt.Sprintf("%s: %s", a.DateTime.Format("2006-01-02 15:04"), c.Message)
				}
				all = append(all, c)
				if c.Severity != model.SeverityError {
					warnings = append(warnings, c)
				}
			}
		}

		if model.HasBlocking(all) {
			return &apperr.ConflictError{Conflicts: all}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Appointment created",
		zap.String("appointment_id", appts[0].ID.String()),
		zap.Int64("chat_id", req.ChatID),
		zap.Time("date_time", req.DateTime),
		zap.Int("duration_minutes", req.DurationMinutes),
		zap.Int("occurrences", len(appts)),
		zap.Int("warnings", len(warnings)),
	)
	s.notifier.AppointmentChanged(ctx, appts[0], "New appointment request")

	return appts, warnings, nil
}

func (s *AppointmentService) buildAppointments(req CreateRequest, occurrences []time.Time) []*model.Appointment {
	var seriesID *uuid.UUID
	if req.IsRecurring {
		id := uuid.New()
		seriesID = &id
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	appts := make([]*model.Appointment, 0, len(occurrences))
	for _, start := range occurrences {
		appts = append(appts, &model.Appointment{
			ID:                   uuid.New(),
			ChatID:               req.ChatID,
			TeacherID:            req.TeacherID,
			StudentID:            req.StudentID,
			DateTime:             start,
			DurationMinutes:      req.DurationMinutes,
			LocationType:         req.LocationType,
			Location:             req.Location,
			SpecificLocation:     req.SpecificLocation,
			MeetingType:          req.MeetingType,
			Status:               model.StatusPending,
			IsRecurring:          req.IsRecurring,
			RecurringPattern:     patternOrNone(req),
			RecurringEndDate:     req.RecurringEndDate,
			SeriesID:             seriesID,
			Price:                req.Price,
			Currency:             currency,
			SpecialRate:          req.SpecialRate,
			IsTrialLesson:        req.MeetingType == model.MeetingTrialLesson,
			Notes:                req.Notes,
			Agenda:               req.Agenda,
			PreparationMaterials: req.PreparationMaterials,
			RequiredMaterials:    req.RequiredMaterials,
			ReminderTime:         req.ReminderTime,
		})
	}
	return appts
}

func patternOrNone(req CreateRequest) model.RecurringPattern {
	if !req.IsRecurring || req.RecurringPattern == "" {
		return model.RecurringNone
	}
	return req.RecurringPattern
}

// CheckAvailability offers the bookable slots for a date. Advisory only:
// CreateAppointment re-validates at commit time.
func (s *AppointmentService) CheckAvailability(ctx context.Context, date time.Time, durationMinutes int, teacherID, studentID int64) ([]model.TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, &apperr.ValidationError{Field: "duration", Reason: "must be positive"}
	}
	return s.checker.Check(ctx, date, durationMinutes, teacherID, studentID)
}

// ListAppointments returns one page of appointments plus the total count.
func (s *AppointmentService) ListAppointments(ctx context.Context, filter repository.ListFilter, page, limit int) ([]*model.Appointment, int, error) {
	return s.store.List(ctx, filter, page, limit)
}

// GetAppointment loads a single appointment.
func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &apperr.NotFoundError{Resource: "appointment", ID: id.String()}
	}
	return a, nil
}

// GetSeries returns every occurrence of a recurring series.
func (s *AppointmentService) GetSeries(ctx context.Context, seriesID uuid.UUID) ([]*model.Appointment, error) {
	return s.store.ListBySeries(ctx, seriesID)
}

// RespondToAppointment drives pending -> confirmed or cancelled.
func (s *AppointmentService) RespondToAppointment(ctx context.Context, id uuid.UUID, userID int64, accepted bool) (*model.Appointment, error) {
	return s.applyTransition(ctx, id, func(a *model.Appointment) error {
		return s.machine.Respond(a, userID, accepted)
	}, "Appointment response recorded")
}

// CancelAppointment cancels a confirmed, upcoming appointment.
func (s *AppointmentService) CancelAppointment(ctx context.Context, id uuid.UUID, userID int64, reason string) (*model.Appointment, error) {
	return s.applyTransition(ctx, id, func(a *model.Appointment) error {
		return s.machine.Cancel(a, userID, reason)
	}, "Appointment cancelled")
}

// MarkComplete records one side's completion verdict.
func (s *AppointmentService) MarkComplete(ctx context.Context, id uuid.UUID, userID int64, completed bool) (*model.Appointment, error) {
	return s.applyTransition(ctx, id, func(a *model.Appointment) error {
		return s.machine.MarkComplete(a, userID, completed)
	}, "Completion recorded")
}

// SetReadiness toggles a side's readiness flag shortly before the session.
// The status does not change here, so a status compare-and-swap would let
// concurrent toggles overwrite each other; instead only the acting side's
// column is written.
func (s *AppointmentService) SetReadiness(ctx context.Context, id uuid.UUID, userID int64, ready bool) (*model.Appointment, error) {
	a, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.machine.SetReadiness(a, userID, ready); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateReadiness(ctx, id, a.SideOf(userID), ready)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			fresh, ferr := s.store.GetByID(ctx, id)
			if ferr == nil && fresh != nil {
				return nil, &apperr.InvalidTransitionError{
					Status: fresh.Status,
					Event:  schedule.EventReadiness,
					Reason: "appointment was modified concurrently",
				}
			}
		}
		return nil, err
	}

	s.logger.Info("Readiness updated",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("side", string(a.SideOf(userID))),
		zap.Bool("ready", ready),
	)
	s.notifier.AppointmentChanged(ctx, updated, "Readiness updated")

	return updated, nil
}

// applyTransition loads the appointment, applies a lifecycle step in memory
// and persists it with a compare-and-swap on the status it was based on.
func (s *AppointmentService) applyTransition(ctx context.Context, id uuid.UUID, apply func(*model.Appointment) error, summary string) (*model.Appointment, error) {
	a, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := a.Status
	if err := apply(a); err != nil {
		return nil, err
	}

	if err := s.store.UpdateStatusCAS(ctx, a, prev); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// another actor raced us; report against the fresh state
			fresh, ferr := s.store.GetByID(ctx, id)
			if ferr == nil && fresh != nil {
				return nil, &apperr.InvalidTransitionError{
					Status: fresh.Status,
					Event:  "update",
					Reason: "appointment was modified concurrently",
				}
			}
		}
		return nil, err
	}

	s.logger.Info(summary,
		zap.String("appointment_id", a.ID.String()),
		zap.String("status", string(a.Status)),
		zap.String("previous_status", string(prev)),
	)
	s.notifier.AppointmentChanged(ctx, a, summary)

	return a, nil
}

// ProjectCalendar maps appointments onto a renderable view grid.
func (s *AppointmentService) ProjectCalendar(appts []*model.Appointment, view calendar.View, anchor time.Time) []calendar.Event {
	return calendar.Project(appts, view, anchor)
}
