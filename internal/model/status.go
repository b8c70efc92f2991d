package model

type Status string

const (
	StatusPending           Status = "pending"             // Awaiting the other party's response
	StatusConfirmed         Status = "confirmed"           // Both parties agreed
	StatusWaitingToComplete Status = "waiting_to_complete" // One side confirmed the session happened
	StatusCompleted         Status = "completed"           // Both sides confirmed
	StatusCancelled         Status = "cancelled"           // Rejected, cancelled or disputed
)

// Terminal statuses accept no further events.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusWaitingToComplete, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Event string

const (
	EventAccept          Event = "accept"
	EventReject          Event = "reject"
	EventCancel          Event = "cancel"
	EventMarkComplete    Event = "mark_complete"
	EventMarkNotComplete Event = "mark_not_complete"
)

// transitions is the closed lifecycle graph. Time and actor guards are
// enforced by the state machine on top of it.
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventAccept: StatusConfirmed,
		EventReject: StatusCancelled,
	},
	StatusConfirmed: {
		EventCancel:       StatusCancelled,
		EventMarkComplete: StatusWaitingToComplete,
	},
	StatusWaitingToComplete: {
		EventMarkComplete:    StatusCompleted,
		EventMarkNotComplete: StatusCancelled, // or back to confirmed, per dispute policy
	},
}

// NextStatus resolves an event against the transition table.
func NextStatus(from Status, ev Event) (Status, bool) {
	next, ok := transitions[from][ev]
	return next, ok
}
