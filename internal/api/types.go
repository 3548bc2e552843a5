package api

import (
	"errors"
	"strings"
	"time"

	"example.com/ritual/internal/domain"
)

// CreateRitualRequest is the payload for POST /v1/rituals and
// PUT /v1/rituals/{id}.
type CreateRitualRequest struct {
	Name          string                  `json:"name"`
	Category      string                  `json:"category"`
	Description   string                  `json:"description,omitempty"`
	Location      string                  `json:"location,omitempty"`
	Gear          []string                `json:"gear,omitempty"`
	Visibility    string                  `json:"visibility,omitempty"`
	ScheduledTime string                  `json:"scheduled_time,omitempty"`
	Steps         []StepDefinitionPayload `json:"steps"`
	Frequency     FrequencyRulePayload    `json:"frequency"`
}

// Validate ensures request correctness before it reaches the domain.
func (r CreateRitualRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return errors.New("category is required")
	}
	if strings.TrimSpace(r.Frequency.Type) == "" {
		return errors.New("frequency.type is required")
	}
	return nil
}

// FrequencyRulePayload mirrors domain.FrequencyRule on the wire.
type FrequencyRulePayload struct {
	Type          string   `json:"type"`
	Interval      int      `json:"interval,omitempty"`
	DaysOfWeek    []int    `json:"days_of_week,omitempty"`
	SpecificDates []string `json:"specific_dates,omitempty"` // YYYY-MM-DD
}

// StepDefinitionPayload is the wire form of the step union; only the
// config matching Type should be set.
type StepDefinitionPayload struct {
	ID         string                 `json:"id,omitempty"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	IsRequired bool                   `json:"is_required"`
	OrderIndex int                    `json:"order_index"`
	Counter    *CounterConfigPayload  `json:"counter,omitempty"`
	Timer      *TimerConfigPayload    `json:"timer,omitempty"`
	Scale      *ScaleConfigPayload    `json:"scale,omitempty"`
	Workout    *WorkoutConfigPayload  `json:"workout,omitempty"`
}

// CounterConfigPayload configures a counter step on the wire.
type CounterConfigPayload struct {
	TargetCount   float64 `json:"target_count"`
	Quantity      string  `json:"quantity"`
	TargetSeconds int     `json:"target_seconds,omitempty"`
}

// TimerConfigPayload configures a timer step on the wire.
type TimerConfigPayload struct {
	TargetSeconds int `json:"target_seconds"`
}

// ScaleConfigPayload configures a scale step on the wire.
type ScaleConfigPayload struct {
	MinValue int `json:"min_value"`
	MaxValue int `json:"max_value"`
}

// WorkoutConfigPayload configures a workout step on the wire.
type WorkoutConfigPayload struct {
	Exercises []WorkoutExercisePayload `json:"exercises"`
}

// WorkoutExercisePayload is one exercise with its planned sets.
type WorkoutExercisePayload struct {
	ID           string              `json:"id,omitempty"`
	ExerciseName string              `json:"exercise_name"`
	Measurement  string              `json:"measurement"`
	OrderIndex   int                 `json:"order_index"`
	Sets         []WorkoutSetPayload `json:"sets"`
}

// WorkoutSetPayload is one planned set.
type WorkoutSetPayload struct {
	ID              string   `json:"id,omitempty"`
	SetNumber       int      `json:"set_number"`
	TargetWeightKg  *float64 `json:"target_weight_kg,omitempty"`
	TargetReps      *int     `json:"target_reps,omitempty"`
	TargetSeconds   *int     `json:"target_seconds,omitempty"`
	TargetDistanceM *float64 `json:"target_distance_m,omitempty"`
}

// CompleteRitualRequest is the payload for
// POST /v1/rituals/{id}/completions.
type CompleteRitualRequest struct {
	Date      string                `json:"date"` // YYYY-MM-DD, defaults to today
	Notes     string                `json:"notes,omitempty"`
	Responses []StepResponsePayload `json:"responses"`
}

// StepResponsePayload mirrors the response union on the wire.
type StepResponsePayload struct {
	StepDefinitionID string                       `json:"step_definition_id"`
	Type             string                       `json:"type"`
	ValueBoolean     *bool                        `json:"value_boolean,omitempty"`
	ActualCount      *float64                     `json:"actual_count,omitempty"`
	Answer           *string                      `json:"answer,omitempty"`
	ActualSeconds    *int                         `json:"actual_seconds,omitempty"`
	ScaleResponse    *int                         `json:"scale_response,omitempty"`
	Sets             []WorkoutSetResponsePayload  `json:"sets,omitempty"`
	Skipped          bool                         `json:"skipped,omitempty"`
}

// WorkoutSetResponsePayload is one completed set on the wire.
type WorkoutSetResponsePayload struct {
	WorkoutSetID    string   `json:"workout_set_id"`
	ActualWeightKg  *float64 `json:"actual_weight_kg,omitempty"`
	ActualReps      *int     `json:"actual_reps,omitempty"`
	ActualSeconds   *int     `json:"actual_seconds,omitempty"`
	ActualDistanceM *float64 `json:"actual_distance_m,omitempty"`
}

// RitualView exposes a full ritual definition.
type RitualView struct {
	RitualID        string                  `json:"ritual_id"`
	OwnerID         string                  `json:"owner_id"`
	Name            string                  `json:"name"`
	Category        string                  `json:"category"`
	Description     string                  `json:"description,omitempty"`
	Location        string                  `json:"location,omitempty"`
	Gear            []string                `json:"gear,omitempty"`
	Visibility      string                  `json:"visibility"`
	ScheduledTime   string                  `json:"scheduled_time,omitempty"`
	ForkedFromID    *string                 `json:"forked_from_id,omitempty"`
	ForkCount       int                     `json:"fork_count"`
	CompletionCount int                     `json:"completion_count"`
	IsActive        bool                    `json:"is_active"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	Steps           []StepDefinitionPayload `json:"steps"`
	Frequency       FrequencyRulePayload    `json:"frequency"`
}

// CompletionView exposes a recorded completion.
type CompletionView struct {
	CompletionID  string                `json:"completion_id"`
	RitualID      string                `json:"ritual_id"`
	UserID        string                `json:"user_id"`
	ScheduledDate string                `json:"scheduled_date"`
	CompletedAt   time.Time             `json:"completed_at"`
	Notes         string                `json:"notes,omitempty"`
	Responses     []StepResponsePayload `json:"responses,omitempty"`
}

// ScheduleResponse partitions a user's rituals for one date.
type ScheduleResponse struct {
	Date      string           `json:"date"`
	Scheduled []RitualView     `json:"scheduled"`
	Completed []CompletionView `json:"completed"`
}

// StreakView exposes the user's streak state.
type StreakView struct {
	UserID            string `json:"user_id"`
	CurrentStreak     int    `json:"current_streak"`
	LongestStreak     int    `json:"longest_streak"`
	LastCompletedDate string `json:"last_completed_date,omitempty"`
}

func (p FrequencyRulePayload) toDomain() (domain.FrequencyRule, error) {
	rule := domain.FrequencyRule{
		Type:       domain.FrequencyType(p.Type),
		Interval:   p.Interval,
		DaysOfWeek: p.DaysOfWeek,
	}
	for _, raw := range p.SpecificDates {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return domain.FrequencyRule{}, errors.New("specific_dates must be YYYY-MM-DD")
		}
		rule.SpecificDates = append(rule.SpecificDates, parsed)
	}
	return rule, nil
}

func (p StepDefinitionPayload) toDomain() domain.StepDefinition {
	step := domain.StepDefinition{
		ID:         p.ID,
		Name:       p.Name,
		Type:       domain.StepType(p.Type),
		Required:   p.IsRequired,
		OrderIndex: p.OrderIndex,
	}
	if p.Counter != nil {
		step.Counter = &domain.CounterConfig{
			TargetCount:   p.Counter.TargetCount,
			Quantity:      p.Counter.Quantity,
			TargetSeconds: p.Counter.TargetSeconds,
		}
	}
	if p.Timer != nil {
		step.Timer = &domain.TimerConfig{TargetSeconds: p.Timer.TargetSeconds}
	}
	if p.Scale != nil {
		step.Scale = &domain.ScaleConfig{MinValue: p.Scale.MinValue, MaxValue: p.Scale.MaxValue}
	}
	if p.Workout != nil {
		workout := &domain.WorkoutConfig{}
		for _, exercise := range p.Workout.Exercises {
			converted := domain.WorkoutExercise{
				ID:           exercise.ID,
				ExerciseName: exercise.ExerciseName,
				Measurement:  domain.MeasurementType(exercise.Measurement),
				OrderIndex:   exercise.OrderIndex,
			}
			for _, set := range exercise.Sets {
				converted.Sets = append(converted.Sets, domain.WorkoutSet{
					ID:              set.ID,
					SetNumber:       set.SetNumber,
					TargetWeightKg:  set.TargetWeightKg,
					TargetReps:      set.TargetReps,
					TargetSeconds:   set.TargetSeconds,
					TargetDistanceM: set.TargetDistanceM,
				})
			}
			workout.Exercises = append(workout.Exercises, converted)
		}
		step.Workout = workout
	}
	return step
}

func (r CreateRitualRequest) toInput() (domain.CreateRitualInput, error) {
	frequency, err := r.Frequency.toDomain()
	if err != nil {
		return domain.CreateRitualInput{}, err
	}
	input := domain.CreateRitualInput{
		Name:          r.Name,
		Category:      domain.Category(r.Category),
		Description:   r.Description,
		Location:      r.Location,
		Gear:          r.Gear,
		Visibility:    domain.Visibility(r.Visibility),
		ScheduledTime: r.ScheduledTime,
		Frequency:     frequency,
	}
	for _, step := range r.Steps {
		input.Steps = append(input.Steps, step.toDomain())
	}
	return input, nil
}

func (p StepResponsePayload) toDomain() domain.StepResponse {
	resp := domain.StepResponse{
		StepDefinitionID: p.StepDefinitionID,
		Type:             domain.StepType(p.Type),
		ValueBoolean:     p.ValueBoolean,
		ActualCount:      p.ActualCount,
		Answer:           p.Answer,
		ActualSeconds:    p.ActualSeconds,
		ScaleResponse:    p.ScaleResponse,
	}
	for _, set := range p.Sets {
		resp.Sets = append(resp.Sets, domain.WorkoutSetResponse{
			WorkoutSetID:    set.WorkoutSetID,
			ActualWeightKg:  set.ActualWeightKg,
			ActualReps:      set.ActualReps,
			ActualSeconds:   set.ActualSeconds,
			ActualDistanceM: set.ActualDistanceM,
		})
	}
	return resp
}

func toRitualView(ritual domain.RitualDefinition) RitualView {
	view := RitualView{
		RitualID:        ritual.ID,
		OwnerID:         ritual.OwnerID,
		Name:            ritual.Name,
		Category:        string(ritual.Category),
		Description:     ritual.Description,
		Location:        ritual.Location,
		Gear:            ritual.Gear,
		Visibility:      string(ritual.Visibility),
		ScheduledTime:   ritual.ScheduledTime,
		ForkedFromID:    ritual.ForkedFromID,
		ForkCount:       ritual.ForkCount,
		CompletionCount: ritual.CompletionCount,
		IsActive:        ritual.IsActive,
		CreatedAt:       ritual.CreatedAt,
		UpdatedAt:       ritual.UpdatedAt,
		Frequency: FrequencyRulePayload{
			Type:       string(ritual.Frequency.Type),
			Interval:   ritual.Frequency.Interval,
			DaysOfWeek: ritual.Frequency.DaysOfWeek,
		},
	}
	for _, date := range ritual.Frequency.SpecificDates {
		view.Frequency.SpecificDates = append(view.Frequency.SpecificDates, domain.DateOf(date).Format(time.DateOnly))
	}
	for _, step := range ritual.Steps {
		view.Steps = append(view.Steps, toStepView(step))
	}
	return view
}

func toStepView(step domain.StepDefinition) StepDefinitionPayload {
	payload := StepDefinitionPayload{
		ID:         step.ID,
		Name:       step.Name,
		Type:       string(step.Type),
		IsRequired: step.Required,
		OrderIndex: step.OrderIndex,
	}
	if step.Counter != nil {
		payload.Counter = &CounterConfigPayload{
			TargetCount:   step.Counter.TargetCount,
			Quantity:      step.Counter.Quantity,
			TargetSeconds: step.Counter.TargetSeconds,
		}
	}
	if step.Timer != nil {
		payload.Timer = &TimerConfigPayload{TargetSeconds: step.Timer.TargetSeconds}
	}
	if step.Scale != nil {
		payload.Scale = &ScaleConfigPayload{MinValue: step.Scale.MinValue, MaxValue: step.Scale.MaxValue}
	}
	if step.Workout != nil {
		workout := &WorkoutConfigPayload{}
		for _, exercise := range step.Workout.Exercises {
			converted := WorkoutExercisePayload{
				ID:           exercise.ID,
				ExerciseName: exercise.ExerciseName,
				Measurement:  string(exercise.Measurement),
				OrderIndex:   exercise.OrderIndex,
			}
			for _, set := range exercise.Sets {
				converted.Sets = append(converted.Sets, WorkoutSetPayload{
					ID:              set.ID,
					SetNumber:       set.SetNumber,
					TargetWeightKg:  set.TargetWeightKg,
					TargetReps:      set.TargetReps,
					TargetSeconds:   set.TargetSeconds,
					TargetDistanceM: set.TargetDistanceM,
				})
			}
			workout.Exercises = append(workout.Exercises, converted)
		}
		payload.Workout = workout
	}
	return payload
}

func toCompletionView(completion domain.RitualCompletion) CompletionView {
	view := CompletionView{
		CompletionID:  completion.ID,
		RitualID:      completion.RitualID,
		UserID:        completion.UserID,
		ScheduledDate: domain.DateOf(completion.ScheduledDate).Format(time.DateOnly),
		CompletedAt:   completion.CompletedAt,
		Notes:         completion.Notes,
	}
	for _, resp := range completion.Responses {
		payload := StepResponsePayload{
			StepDefinitionID: resp.StepDefinitionID,
			Type:             string(resp.Type),
			ValueBoolean:     resp.ValueBoolean,
			ActualCount:      resp.ActualCount,
			Answer:           resp.Answer,
			ActualSeconds:    resp.ActualSeconds,
			ScaleResponse:    resp.ScaleResponse,
			Skipped:          resp.Skipped,
		}
		for _, set := range resp.Sets {
			payload.Sets = append(payload.Sets, WorkoutSetResponsePayload{
				WorkoutSetID:    set.WorkoutSetID,
				ActualWeightKg:  set.ActualWeightKg,
				ActualReps:      set.ActualReps,
				ActualSeconds:   set.ActualSeconds,
				ActualDistanceM: set.ActualDistanceM,
			})
		}
		view.Responses = append(view.Responses, payload)
	}
	return view
}

func toStreakView(streak domain.UserStreak) StreakView {
	view := StreakView{
		UserID:        streak.UserID,
		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
	}
	if !streak.LastCompletedDate.IsZero() {
		view.LastCompletedDate = domain.DateOf(streak.LastCompletedDate).Format(time.DateOnly)
	}
	return view
}
