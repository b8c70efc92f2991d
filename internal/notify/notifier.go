package notify

import (
	"context"

	"github.com/tutorlink/appointments/internal/model"
)

// Notifier pushes appointment changes to the conversation that owns them.
// Delivery is best-effort: a failed notification never fails the operation
// that triggered it.
type Notifier interface {
	AppointmentChanged(ctx context.Context, a *model.Appointment, summary string)
}

// Noop is used when no chat transport is configured.
type Noop struct{}

func (Noop) AppointmentChanged(context.Context, *model.Appointment, string) {}
