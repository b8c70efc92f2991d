package model

import "time"

// TimeSlot is a candidate booking interval. Never persisted, recomputed per query.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"` // set when unavailable
}
