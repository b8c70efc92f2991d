package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/tutorlink/appointments/internal/model"
)

// AppointmentSource is the read dependency for committed appointments.
// The repository implements it in production; tests inject fixtures.
type AppointmentSource interface {
	// ActiveBetween returns appointments with status pending or confirmed
	// that involve either participant and start before `to` while ending
	// after `from`.
	ActiveBetween(ctx context.Context, teacherID, studentID int64, from, to time.Time) ([]*model.Appointment, error)
}

const reasonOccupied = "Occupied"

// AvailabilityChecker offers bookable slots for a date by intersecting the
// generated slot grid with both participants' committed appointments. It is
// advisory: the authoritative overlap check runs again at commit time.
type AvailabilityChecker struct {
	generator *SlotGenerator
	source    AppointmentSource
}

func NewAvailabilityChecker(generator *SlotGenerator, source AppointmentSource) *AvailabilityChecker {
	return &AvailabilityChecker{generator: generator, source: source}
}

// Check returns one TimeSlot per generated start, in input order.
func (c *AvailabilityChecker) Check(ctx context.Context, date time.Time, durationMinutes int, teacherID, studentID int64) ([]model.TimeSlot, error) {
	starts := c.generator.StartTimes(date)
	if len(starts) == 0 {
		return nil, nil
	}

	span := time.Duration(durationMinutes) * time.Minute
	from := starts[0]
	to := starts[len(starts)-1].Add(span)

	existing, err := c.source.ActiveBetween(ctx, teacherID, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load active appointments: %w", err)
	}

	slots := make([]model.TimeSlot, 0, len(starts))
	for _, start := range starts {
		slot := model.TimeSlot{
			Start:     start,
			End:       start.Add(span),
			Available: true,
		}
		for _, appt := range existing {
			if appt.Overlaps(start, durationMinutes) {
				slot.Available = false
				slot.Reason = reasonOccupied
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
