package schedule

import (
	"time"

	"github.com/tutorlink/appointments/internal/model"
)

// Series describes a recurring appointment cadence. It is a pure value: the
// occurrence sequence is fully determined by the three fields, so iterators
// are cheap to restart.
type Series struct {
	Start   time.Time
	Pattern model.RecurringPattern
	EndDate time.Time
}

// Iter returns a fresh iterator positioned at the first occurrence.
func (s Series) Iter() *SeriesIterator {
	return &SeriesIterator{series: s, next: s.Start}
}

// Count walks the series and returns the number of occurrences, including
// the first one. Zero when the pattern does not advance.
func (s Series) Count() int {
	n := 0
	for it := s.Iter(); ; n++ {
		if _, ok := it.Next(); !ok {
			return n
		}
	}
}

// All materializes every occurrence in order.
func (s Series) All() []time.Time {
	var out []time.Time
	for it := s.Iter(); ; {
		t, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, t)
	}
}

// SeriesIterator lazily yields occurrence start times up to and including
// the series end date.
type SeriesIterator struct {
	series Series
	next   time.Time
	done   bool
}

// Next returns the next occurrence, or false once the end date is passed.
func (it *SeriesIterator) Next() (time.Time, bool) {
	if it.done || it.next.After(it.series.EndDate) {
		it.done = true
		return time.Time{}, false
	}

	current := it.next
	switch it.series.Pattern {
	case model.RecurringWeekly:
		it.next = current.AddDate(0, 0, 7)
	case model.RecurringBiWeekly:
		it.next = current.AddDate(0, 0, 14)
	case model.RecurringMonthly:
		it.next = current.AddDate(0, 1, 0)
	default:
		// none or unknown: the base occurrence is the whole series
		it.done = true
	}
	return current, true
}
