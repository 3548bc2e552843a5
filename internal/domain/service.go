package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository captures the persistence operations the service needs.
// CreateCompletion and Fork are atomic: their counter updates, row
// inserts and streak adjustments all commit or roll back together.
type Repository interface {
	CreateRitual(ctx context.Context, ritual RitualDefinition) error
	GetRitual(ctx context.Context, ritualID string) (*RitualDefinition, error)
	UpdateRitual(ctx context.Context, ritual RitualDefinition) error
	DeleteRitual(ctx context.Context, ritualID string) error
	ListVisible(ctx context.Context, userID string) ([]RitualDefinition, error)
	CompletionsOn(ctx context.Context, userID string, date time.Time) ([]RitualCompletion, error)
	CreateCompletion(ctx context.Context, completion RitualCompletion) error
	Fork(ctx context.Context, sourceID string, copy RitualDefinition) error
	Streak(ctx context.Context, userID string) (*UserStreak, error)
}

// Service orchestrates ritual workflows over a Repository.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateRitualInput captures the payload from the API layer.
type CreateRitualInput struct {
	Name          string
	Category      Category
	Description   string
	Location      string
	Gear          []string
	Visibility    Visibility
	ScheduledTime string
	Steps         []StepDefinition
	Frequency     FrequencyRule
}

// CreateRitual validates the definition and persists the ritual, its
// steps and its frequency rule in one transaction.
func (s *Service) CreateRitual(ctx context.Context, ownerID string, input CreateRitualInput) (*RitualDefinition, error) {
	now := time.Now().UTC()
	ritual := RitualDefinition{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Name:          input.Name,
		Category:      input.Category,
		Description:   input.Description,
		Location:      input.Location,
		Gear:          input.Gear,
		Visibility:    input.Visibility,
		ScheduledTime: input.ScheduledTime,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
		Steps:         assignStepIDs(input.Steps),
		Frequency:     input.Frequency,
	}
	if ritual.Visibility == "" {
		ritual.Visibility = VisibilityPrivate
	}

	if err := ritual.Validate(); err != nil {
		return nil, err
	}
	if err := ritual.Frequency.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSteps(ritual.Steps); err != nil {
		return nil, err
	}

	for i := range ritual.Steps {
		ritual.Steps[i].RitualID = ritual.ID
	}

	if err := s.repo.CreateRitual(ctx, ritual); err != nil {
		return nil, err
	}
	return &ritual, nil
}

// UpdateRitual replaces the ritual's mutable fields and its step list
// in place. Only the owner may update, and the new definition passes
// the same validation as creation.
func (s *Service) UpdateRitual(ctx context.Context, userID, ritualID string, input CreateRitualInput) (*RitualDefinition, error) {
	ritual, err := s.loadRitual(ctx, ritualID)
	if err != nil {
		return nil, err
	}
	if ritual.OwnerID != userID {
		return nil, ErrForbidden
	}

	ritual.Name = input.Name
	ritual.Category = input.Category
	ritual.Description = input.Description
	ritual.Location = input.Location
	ritual.Gear = input.Gear
	if input.Visibility != "" {
		ritual.Visibility = input.Visibility
	}
	ritual.ScheduledTime = input.ScheduledTime
	ritual.Steps = assignStepIDs(input.Steps)
	ritual.Frequency = input.Frequency
	ritual.UpdatedAt = time.Now().UTC()

	if err := ritual.Validate(); err != nil {
		return nil, err
	}
	if err := ritual.Frequency.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSteps(ritual.Steps); err != nil {
		return nil, err
	}
	for i := range ritual.Steps {
		ritual.Steps[i].RitualID = ritual.ID
	}

	if err := s.repo.UpdateRitual(ctx, *ritual); err != nil {
		return nil, err
	}
	return ritual, nil
}

// GetRitual fetches a ritual readable by the user.
func (s *Service) GetRitual(ctx context.Context, userID, ritualID string) (*RitualDefinition, error) {
	ritual, err := s.loadRitual(ctx, ritualID)
	if err != nil {
		return nil, err
	}
	if ritual.OwnerID != userID && !ritual.IsPublic() {
		return nil, ErrForbidden
	}
	return ritual, nil
}

// DeleteRitual removes a ritual and, by cascade, its steps, frequency
// rule and completions. Owner only.
func (s *Service) DeleteRitual(ctx context.Context, userID, ritualID string) error {
	ritual, err := s.loadRitual(ctx, ritualID)
	if err != nil {
		return err
	}
	if ritual.OwnerID != userID {
		return ErrForbidden
	}
	return s.repo.DeleteRitual(ctx, ritualID)
}

// Schedule partitions the rituals visible to a user for one date.
type Schedule struct {
	Date      time.Time
	Scheduled []RitualDefinition
	Completed []RitualCompletion
}

// ResolveSchedule evaluates every active ritual visible to the user
// against the date: occurrences without a same-day completion by this
// user are scheduled, occurrences with one are completed.
func (s *Service) ResolveSchedule(ctx context.Context, userID string, date time.Time) (*Schedule, error) {
	date = DateOf(date)

	rituals, err := s.repo.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	completions, err := s.repo.CompletionsOn(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	completedRituals := make(map[string]RitualCompletion, len(completions))
	for _, completion := range completions {
		completedRituals[completion.RitualID] = completion
	}

	schedule := &Schedule{Date: date}
	for _, ritual := range rituals {
		if !ritual.IsActive {
			continue
		}
		if !OccursOn(ritual.Frequency, ritual.CreatedDate(), date) {
			continue
		}
		if completion, done := completedRituals[ritual.ID]; done {
			schedule.Completed = append(schedule.Completed, completion)
		} else {
			schedule.Scheduled = append(schedule.Scheduled, ritual)
		}
	}
	return schedule, nil
}

// CompleteRitual validates the responses and records the completion
// atomically: the completion row, its per-step responses (workout
// responses expand into one row per set), the ritual's completion
// counter and the user's streak all commit together or not at all.
// Counter responses arrive in the step's display unit and are stored in
// canonical SI units.
func (s *Service) CompleteRitual(ctx context.Context, userID, ritualID, notes string, responses []StepResponse, onDate time.Time) (*RitualCompletion, error) {
	ritual, err := s.loadRitual(ctx, ritualID)
	if err != nil {
		return nil, err
	}
	if ritual.OwnerID != userID && !ritual.IsPublic() {
		return nil, ErrForbidden
	}

	validated, err := ValidateResponses(ritual.Steps, responses)
	if err != nil {
		return nil, err
	}
	if err := convertCounterResponses(ritual.Steps, validated); err != nil {
		return nil, err
	}

	completion := RitualCompletion{
		ID:            uuid.NewString(),
		RitualID:      ritual.ID,
		UserID:        userID,
		ScheduledDate: DateOf(onDate),
		CompletedAt:   time.Now().UTC(),
		Notes:         notes,
		Responses:     validated,
	}
	for i := range completion.Responses {
		completion.Responses[i].ID = uuid.NewString()
		for j := range completion.Responses[i].Sets {
			completion.Responses[i].Sets[j].ID = uuid.NewString()
		}
	}

	if err := s.repo.CreateCompletion(ctx, completion); err != nil {
		return nil, err
	}
	return &completion, nil
}

// ForkRitual deep-copies a public ritual under a new owner. The copy
// and the source's fork counter increment commit atomically.
func (s *Service) ForkRitual(ctx context.Context, newOwnerID, sourceID string) (*RitualDefinition, error) {
	source, err := s.loadRitual(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !source.IsPublic() {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	forkedFrom := source.ID
	fork := RitualDefinition{
		ID:            uuid.NewString(),
		OwnerID:       newOwnerID,
		Name:          source.Name,
		Category:      source.Category,
		Description:   source.Description,
		Location:      source.Location,
		Gear:          append([]string(nil), source.Gear...),
		Visibility:    VisibilityPrivate,
		ScheduledTime: source.ScheduledTime,
		ForkedFromID:  &forkedFrom,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
		Steps:         assignStepIDs(source.Steps),
		Frequency:     copyFrequency(source.Frequency),
	}
	for i := range fork.Steps {
		fork.Steps[i].RitualID = fork.ID
	}

	if err := s.repo.Fork(ctx, source.ID, fork); err != nil {
		return nil, err
	}
	return &fork, nil
}

// Streak returns the user's current streak state.
func (s *Service) Streak(ctx context.Context, userID string) (*UserStreak, error) {
	streak, err := s.repo.Streak(ctx, userID)
	if err != nil {
		return nil, err
	}
	if streak == nil {
		return &UserStreak{UserID: userID}, nil
	}
	return streak, nil
}

func (s *Service) loadRitual(ctx context.Context, ritualID string) (*RitualDefinition, error) {
	ritual, err := s.repo.GetRitual(ctx, ritualID)
	if err != nil {
		return nil, err
	}
	if ritual == nil {
		return nil, ErrRitualNotFound
	}
	return ritual, nil
}

// assignStepIDs deep-copies a step list with fresh identifiers while
// keeping order indexes and payloads intact.
func assignStepIDs(steps []StepDefinition) []StepDefinition {
	out := make([]StepDefinition, len(steps))
	for i, step := range steps {
		copied := step
		copied.ID = uuid.NewString()
		if step.Counter != nil {
			counter := *step.Counter
			copied.Counter = &counter
		}
		if step.Timer != nil {
			timer := *step.Timer
			copied.Timer = &timer
		}
		if step.Scale != nil {
			scale := *step.Scale
			copied.Scale = &scale
		}
		if step.Workout != nil {
			workout := WorkoutConfig{Exercises: make([]WorkoutExercise, len(step.Workout.Exercises))}
			for j, exercise := range step.Workout.Exercises {
				copiedExercise := exercise
				copiedExercise.ID = uuid.NewString()
				copiedExercise.Sets = make([]WorkoutSet, len(exercise.Sets))
				for k, set := range exercise.Sets {
					copiedSet := set
					copiedSet.ID = uuid.NewString()
					copiedExercise.Sets[k] = copiedSet
				}
				workout.Exercises[j] = copiedExercise
			}
			copied.Workout = &workout
		}
		out[i] = copied
	}
	return out
}

func copyFrequency(rule FrequencyRule) FrequencyRule {
	copied := rule
	copied.DaysOfWeek = append([]int(nil), rule.DaysOfWeek...)
	copied.SpecificDates = append([]time.Time(nil), rule.SpecificDates...)
	return copied
}

// convertCounterResponses rewrites counter payloads from the step's
// display unit into the quantity's SI base unit. Synthesized defaults
// stay zero.
func convertCounterResponses(steps []StepDefinition, responses []StepResponse) error {
	counters := make(map[string]*CounterConfig, len(steps))
	for _, step := range steps {
		if step.Type == StepCounter && step.Counter != nil {
			counters[step.ID] = step.Counter
		}
	}
	for i, resp := range responses {
		if resp.Type != StepCounter || resp.Skipped || resp.ActualCount == nil {
			continue
		}
		config, ok := counters[resp.StepDefinitionID]
		if !ok {
			continue
		}
		quantity, err := LookupQuantity(config.Quantity)
		if err != nil {
			return err
		}
		canonical, err := ToSI(*resp.ActualCount, quantity)
		if err != nil {
			return fmt.Errorf("convert counter response for step %s: %w", resp.StepDefinitionID, err)
		}
		responses[i].ActualCount = &canonical
	}
	return nil
}
