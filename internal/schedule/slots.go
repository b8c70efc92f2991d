package schedule

import "time"

// SlotGenerator produces candidate slot start times for a calendar date.
// Same date in, same sequence out; no side effects.
type SlotGenerator struct {
	hours       BusinessHours
	stepMinutes int
}

func NewSlotGenerator(hours BusinessHours, stepMinutes int) *SlotGenerator {
	if stepMinutes <= 0 {
		stepMinutes = DefaultPolicy().SlotStepMinutes
	}
	return &SlotGenerator{hours: hours, stepMinutes: stepMinutes}
}

// StartTimes returns the slot starts for the date's business-hours window,
// ordered, one per step. The last start still leaves room for one step
// before closing.
func (g *SlotGenerator) StartTimes(date time.Time) []time.Time {
	w := g.hours.WindowFor(date)
	if w.Zero() || w.EndMinute <= w.StartMinute {
		return nil
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var starts []time.Time
	for m := w.StartMinute; m+g.stepMinutes <= w.EndMinute; m += g.stepMinutes {
		starts = append(starts, midnight.Add(time.Duration(m)*time.Minute))
	}
	return starts
}
