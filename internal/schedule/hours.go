package schedule

import "time"

// Window is a same-day business-hours interval [Start, End) in minutes from
// midnight, local to the date being checked.
type Window struct {
	StartMinute int
	EndMinute   int
}

func (w Window) Zero() bool {
	return w.StartMinute == 0 && w.EndMinute == 0
}

// BusinessHours maps each weekday to its bookable window. It is the single
// source of truth for opening times; call sites must not carry their own
// literals.
type BusinessHours map[time.Weekday]Window

// DefaultBusinessHours returns the canonical table: Sun 10:00-18:00,
// Sat 09:00-17:00, Mon-Fri 08:00-21:00.
func DefaultBusinessHours() BusinessHours {
	bh := BusinessHours{
		time.Sunday:   {StartMinute: 10 * 60, EndMinute: 18 * 60},
		time.Saturday: {StartMinute: 9 * 60, EndMinute: 17 * 60},
	}
	for d := time.Monday; d <= time.Friday; d++ {
		bh[d] = Window{StartMinute: 8 * 60, EndMinute: 21 * 60}
	}
	return bh
}

// WindowFor returns the bookable window on the given date.
func (bh BusinessHours) WindowFor(date time.Time) Window {
	return bh[date.Weekday()]
}

// Contains reports whether [start, start+duration) lies entirely inside the
// window for start's weekday. Intervals crossing midnight never fit. A
// mid-minute start occupies its trailing partial minute too, so it cannot
// slip past the closing time.
func (bh BusinessHours) Contains(start time.Time, durationMinutes int) bool {
	w := bh.WindowFor(start)
	if w.Zero() {
		return false
	}
	startMin := start.Hour()*60 + start.Minute()
	endMin := startMin + durationMinutes
	if start.Second() > 0 || start.Nanosecond() > 0 {
		endMin++
	}
	return startMin >= w.StartMinute && endMin <= w.EndMinute
}
