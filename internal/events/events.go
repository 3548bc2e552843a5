// Package events defines the payloads emitted through the outbox.
package events

import "time"

// RitualCompleted is emitted when a completion is recorded.
type RitualCompleted struct {
	CompletionID  string    `json:"completion_id"`
	RitualID      string    `json:"ritual_id"`
	UserID        string    `json:"user_id"`
	ScheduledDate string    `json:"scheduled_date"` // YYYY-MM-DD
	CompletedAt   time.Time `json:"completed_at"`
	StepCount     int       `json:"step_count"`
}

// RitualForked is emitted when a public ritual is copied to a new
// owner.
type RitualForked struct {
	SourceRitualID string    `json:"source_ritual_id"`
	ForkRitualID   string    `json:"fork_ritual_id"`
	NewOwnerID     string    `json:"new_owner_id"`
	ForkedAt       time.Time `json:"forked_at"`
}
