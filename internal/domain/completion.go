package domain

import "time"

// RitualCompletion records a user finishing a ritual on a calendar
// date, with one response per step definition present at completion
// time. Completions are immutable once recorded and at most one exists
// per (user, ritual, date).
type RitualCompletion struct {
	ID            string
	RitualID      string
	UserID        string
	ScheduledDate time.Time // calendar date, no time-of-day
	CompletedAt   time.Time
	Notes         string
	Responses     []StepResponse
}

// StepResponse mirrors the step definition union: exactly the payload
// field matching Type is populated. Skipped marks a neutral default
// synthesized for an absent optional step; it keeps the completion
// structurally whole but never counts as performed work.
type StepResponse struct {
	ID               string
	StepDefinitionID string
	Type             StepType
	ValueBoolean     *bool
	ActualCount      *float64 // canonical SI units
	Answer           *string
	ActualSeconds    *int
	ScaleResponse    *int
	Sets             []WorkoutSetResponse
	Skipped          bool
}

// WorkoutSetResponse records one completed set, tied to the planned set
// it answers. Field legality follows the exercise's measurement type.
type WorkoutSetResponse struct {
	ID              string
	WorkoutSetID    string
	ActualWeightKg  *float64
	ActualReps      *int
	ActualSeconds   *int
	ActualDistanceM *float64
}
