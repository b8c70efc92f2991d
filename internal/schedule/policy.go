package schedule

import "time"

// DisputePolicy decides where mark-not-complete lands a disputed session.
type DisputePolicy string

const (
	DisputeCancel DisputePolicy = "cancel" // dispute cancels the appointment
	DisputeRevert DisputePolicy = "revert" // dispute reverts it to confirmed
)

func (p DisputePolicy) Valid() bool {
	return p == DisputeCancel || p == DisputeRevert
}

// Policy bundles the scheduling constants that product may tune.
type Policy struct {
	SlotStepMinutes int           // slot granularity
	BufferMinutes   int           // minimum advance notice before a warning fires
	MaxOccurrences  int           // hard cap on recurring series length
	ReadinessWindow time.Duration // readiness toggles allowed this close to start
	Dispute         DisputePolicy
}

func DefaultPolicy() Policy {
	return Policy{
		SlotStepMinutes: 30,
		BufferMinutes:   120,
		MaxOccurrences:  52,
		ReadinessWindow: 24 * time.Hour,
		Dispute:         DisputeCancel,
	}
}
