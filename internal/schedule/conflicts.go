package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/tutorlink/appointments/internal/model"
)

// Candidate is a booking request under validation.
type Candidate struct {
	TeacherID        int64
	StudentID        int64
	DateTime         time.Time
	DurationMinutes  int
	IsRecurring      bool
	RecurringPattern model.RecurringPattern
	RecurringEndDate *time.Time
}

// ConflictDetector validates a candidate against business-hour, advance
// notice, overlap and recurrence rules. It is the enforcement point at
// commit time; AvailabilityChecker only pre-filters for the UI.
type ConflictDetector struct {
	hours  BusinessHours
	policy Policy
	source AppointmentSource
	now    func() time.Time
}

func NewConflictDetector(hours BusinessHours, policy Policy, source AppointmentSource) *ConflictDetector {
	return &ConflictDetector{
		hours:  hours,
		policy: policy,
		source: source,
		now:    time.Now,
	}
}

// WithClock overrides the detector's clock, for tests.
func (d *ConflictDetector) WithClock(now func() time.Time) *ConflictDetector {
	d.now = now
	return d
}

// Detect runs every rule and returns the conflicts in rule order. An empty
// list means the candidate may be committed as-is.
func (d *ConflictDetector) Detect(ctx context.Context, cand Candidate) ([]model.Conflict, error) {
	var conflicts []model.Conflict

	if c := d.checkBusinessHours(cand); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := d.checkAdvanceNotice(cand); c != nil {
		conflicts = append(conflicts, *c)
	}
	c, err := d.checkOverlap(ctx, cand)
	if err != nil {
		return nil, err
	}
	if c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := d.checkRecurrence(cand); c != nil {
		conflicts = append(conflicts, *c)
	}
	return conflicts, nil
}

func (d *ConflictDetector) checkBusinessHours(cand Candidate) *model.Conflict {
	if d.hours.Contains(cand.DateTime, cand.DurationMinutes) {
		return nil
	}
	w := d.hours.WindowFor(cand.DateTime)
	msg := fmt.Sprintf("appointment must fit within business hours %02d:%02d-%02d:%02d on %s",
		w.StartMinute/60, w.StartMinute%60, w.EndMinute/60, w.EndMinute%60, cand.DateTime.Weekday())
	if w.Zero() {
		msg = fmt.Sprintf("no business hours configured for %s", cand.DateTime.Weekday())
	}
	return &model.Conflict{
		Type:     model.ConflictBusinessHours,
		Severity: model.SeverityError,
		Message:  msg,
	}
}

func (d *ConflictDetector) checkAdvanceNotice(cand Candidate) *model.Conflict {
	buffer := time.Duration(d.policy.BufferMinutes) * time.Minute
	if !cand.DateTime.Before(d.now().Add(buffer)) {
		return nil
	}
	return &model.Conflict{
		Type:     model.ConflictBufferViolation,
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("booked less than %d minutes before start", d.policy.BufferMinutes),
	}
}

func (d *ConflictDetector) checkOverlap(ctx context.Context, cand Candidate) (*model.Conflict, error) {
	end := cand.DateTime.Add(time.Duration(cand.DurationMinutes) * time.Minute)
	existing, err := d.source.ActiveBetween(ctx, cand.TeacherID, cand.StudentID, cand.DateTime, end)
	if err != nil {
		return nil, fmt.Errorf("load active appointments: %w", err)
	}
	for _, appt := range existing {
		if appt.Overlaps(cand.DateTime, cand.DurationMinutes) {
			return &model.Conflict{
				Type:     model.ConflictOverlap,
				Severity: model.SeverityError,
				Message: fmt.Sprintf("overlaps an existing %s appointment at %s",
					appt.Status, appt.DateTime.Format("2006-01-02 15:04")),
			}, nil
		}
	}
	return nil, nil
}

func (d *ConflictDetector) checkRecurrence(cand Candidate) *model.Conflict {
	return ValidateRecurrence(d.policy, cand)
}

// ValidateRecurrence checks the recurring-pattern rule on its own, so
// callers can reject a malformed series before materializing occurrences.
func ValidateRecurrence(policy Policy, cand Candidate) *model.Conflict {
	if !cand.IsRecurring {
		return nil
	}

	fail := func(msg string) *model.Conflict {
		return &model.Conflict{
			Type:     model.ConflictRecurring,
			Severity: model.SeverityError,
			Message:  msg,
		}
	}

	switch cand.RecurringPattern {
	case model.RecurringWeekly, model.RecurringBiWeekly, model.RecurringMonthly:
	case model.RecurringNone, "":
		return fail("recurring appointment requires a pattern")
	default:
		return fail(fmt.Sprintf("unknown recurring pattern %q", cand.RecurringPattern))
	}

	if cand.RecurringEndDate == nil {
		return fail("recurring appointment requires an end date")
	}
	if !cand.RecurringEndDate.After(cand.DateTime) {
		return fail("recurring end date must be after the first occurrence")
	}

	series := Series{
		Start:   cand.DateTime,
		Pattern: cand.RecurringPattern,
		EndDate: *cand.RecurringEndDate,
	}
	if n := series.Count(); n > policy.MaxOccurrences {
		return fail(fmt.Sprintf("series has %d occurrences, maximum is %d", n, policy.MaxOccurrences))
	}
	return nil
}
