package model

type ConflictType string

const (
	ConflictBusinessHours   ConflictType = "business_hours"
	ConflictBufferViolation ConflictType = "buffer_violation"
	ConflictOverlap         ConflictType = "overlap"
	ConflictRecurring       ConflictType = "recurring_pattern"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Conflict is a detected scheduling problem. Error severity blocks the
// booking; warnings are surfaced for the caller to acknowledge.
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
}

// HasBlocking reports whether any conflict in the list prevents commit.
func HasBlocking(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			return true
		}
	}
	return false
}
