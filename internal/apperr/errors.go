// Package apperr defines the error taxonomy the engine returns to its
// collaborators. Callers pick them apart with errors.As.
package apperr

import (
	"fmt"
	"strings"

	"github.com/tutorlink/appointments/internal/model"
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError wraps the conflicts detected for a candidate booking.
type ConflictError struct {
	Conflicts []model.Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s(%s): %s", c.Type, c.Severity, c.Message))
	}
	return "booking conflicts: " + strings.Join(parts, "; ")
}

// Blocking reports whether the error actually prevented the commit.
func (e *ConflictError) Blocking() bool {
	return model.HasBlocking(e.Conflicts)
}

// InvalidTransitionError reports an event the lifecycle table does not allow
// from the appointment's current status.
type InvalidTransitionError struct {
	Status model.Status
	Event  model.Event
	Reason string // optional guard detail
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s appointment in status %q: %s", e.Event, e.Status, e.Reason)
	}
	return fmt.Sprintf("cannot %s appointment in status %q", e.Event, e.Status)
}

// NotFoundError reports an unknown appointment id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AuthorizationError reports an actor that is not a participant of the
// appointment's conversation.
type AuthorizationError struct {
	UserID int64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not a participant of this appointment", e.UserID)
}
