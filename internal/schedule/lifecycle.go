package schedule

import (
	"fmt"
	"time"

	"github.com/tutorlink/appointments/internal/apperr"
	"github.com/tutorlink/appointments/internal/model"
)

// EventReadiness is not a lifecycle transition, only an error label for
// readiness toggles rejected by the guards.
const EventReadiness model.Event = "readiness"

// StateMachine applies lifecycle events to an appointment in memory. The
// repository persists the result with a compare-and-swap on the previous
// status, so concurrent actors cannot overwrite each other.
type StateMachine struct {
	policy Policy
	now    func() time.Time
}

func NewStateMachine(policy Policy) *StateMachine {
	return &StateMachine{policy: policy, now: time.Now}
}

// WithClock overrides the machine's clock, for tests.
func (m *StateMachine) WithClock(now func() time.Time) *StateMachine {
	m.now = now
	return m
}

// Respond applies accept or reject to a pending appointment.
func (m *StateMachine) Respond(a *model.Appointment, userID int64, accepted bool) error {
	if !a.IsParticipant(userID) {
		return &apperr.AuthorizationError{UserID: userID}
	}

	ev := model.EventAccept
	if !accepted {
		ev = model.EventReject
	}

	next, ok := model.NextStatus(a.Status, ev)
	if !ok {
		return &apperr.InvalidTransitionError{Status: a.Status, Event: ev}
	}

	a.Status = next
	if !accepted {
		a.CancellationReason = fmt.Sprintf("declined by %s", a.SideOf(userID))
	}
	return nil
}

// Cancel cancels a confirmed, still upcoming appointment. A reason is
// required so the other party learns why.
func (m *StateMachine) Cancel(a *model.Appointment, userID int64, reason string) error {
	if !a.IsParticipant(userID) {
		return &apperr.AuthorizationError{UserID: userID}
	}
	if reason == "" {
		return &apperr.ValidationError{Field: "reason", Reason: "cancellation reason is required"}
	}

	next, ok := model.NextStatus(a.Status, model.EventCancel)
	if !ok {
		return &apperr.InvalidTransitionError{Status: a.Status, Event: model.EventCancel}
	}
	if !m.now().Before(a.DateTime) {
		return &apperr.InvalidTransitionError{
			Status: a.Status,
			Event:  model.EventCancel,
			Reason: "appointment has already started",
		}
	}

	a.Status = next
	a.CancellationReason = reason
	return nil
}

// MarkComplete records one side's completion verdict. Both sides agreeing
// completes the appointment; a dispute follows the configured policy.
func (m *StateMachine) MarkComplete(a *model.Appointment, userID int64, completed bool) error {
	if !a.IsParticipant(userID) {
		return &apperr.AuthorizationError{UserID: userID}
	}
	if !completed {
		return m.dispute(a)
	}

	if _, ok := model.NextStatus(a.Status, model.EventMarkComplete); !ok {
		return &apperr.InvalidTransitionError{Status: a.Status, Event: model.EventMarkComplete}
	}

	if a.Status == model.StatusConfirmed && m.now().Before(a.End()) {
		return &apperr.InvalidTransitionError{
			Status: a.Status,
			Event:  model.EventMarkComplete,
			Reason: "session has not finished yet",
		}
	}

	side := a.SideOf(userID)
	already := (side == model.SideTeacher && a.TeacherCompleted) ||
		(side == model.SideStudent && a.StudentCompleted)
	if already {
		return &apperr.InvalidTransitionError{
			Status: a.Status,
			Event:  model.EventMarkComplete,
			Reason: fmt.Sprintf("%s already confirmed completion", side),
		}
	}

	if side == model.SideTeacher {
		a.TeacherCompleted = true
	} else {
		a.StudentCompleted = true
	}

	if a.BothCompleted() {
		a.Status = model.StatusCompleted
	} else {
		a.Status = model.StatusWaitingToComplete
	}
	return nil
}

func (m *StateMachine) dispute(a *model.Appointment) error {
	if _, ok := model.NextStatus(a.Status, model.EventMarkNotComplete); !ok {
		return &apperr.InvalidTransitionError{Status: a.Status, Event: model.EventMarkNotComplete}
	}

	switch m.policy.Dispute {
	case DisputeRevert:
		a.Status = model.StatusConfirmed
		a.TeacherCompleted = false
		a.StudentCompleted = false
	default:
		a.Status = model.StatusCancelled
		a.CancellationReason = "completion disputed"
	}
	return nil
}

// SetReadiness toggles a side's readiness flag. Allowed only on a confirmed
// appointment within the readiness window before start.
func (m *StateMachine) SetReadiness(a *model.Appointment, userID int64, ready bool) error {
	if !a.IsParticipant(userID) {
		return &apperr.AuthorizationError{UserID: userID}
	}
	if a.Status != model.StatusConfirmed {
		return &apperr.InvalidTransitionError{
			Status: a.Status,
			Event:  EventReadiness,
			Reason: "readiness applies to confirmed appointments only",
		}
	}

	now := m.now()
	if now.Before(a.DateTime.Add(-m.policy.ReadinessWindow)) || !now.Before(a.DateTime) {
		return &apperr.InvalidTransitionError{
			Status: a.Status,
			Event:  EventReadiness,
			Reason: fmt.Sprintf("readiness opens %s before start", m.policy.ReadinessWindow),
		}
	}

	if a.SideOf(userID) == model.SideTeacher {
		a.TeacherReady = ready
	} else {
		a.StudentReady = ready
	}
	return nil
}
