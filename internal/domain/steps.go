package domain

import (
	"fmt"
	"slices"
	"strings"
)

// StepType tags the union of step kinds a ritual can be built from.
type StepType string

const (
	StepBoolean StepType = "boolean"
	StepCounter StepType = "counter"
	StepQNA     StepType = "qna"
	StepTimer   StepType = "timer"
	StepScale   StepType = "scale"
	StepWorkout StepType = "workout"
)

// StepDefinition is one templated unit of work within a ritual. Exactly
// the config field matching Type is populated; boolean and qna steps
// carry no config at all.
type StepDefinition struct {
	ID         string
	RitualID   string
	Name       string
	Type       StepType
	Required   bool
	OrderIndex int
	Counter    *CounterConfig
	Timer      *TimerConfig
	Scale      *ScaleConfig
	Workout    *WorkoutConfig
}

// CounterConfig configures a counter step. TargetCount is stored in the
// quantity's canonical SI unit.
type CounterConfig struct {
	TargetCount   float64
	Quantity      string // PhysicalQuantity name
	TargetSeconds int    // optional, time-flavored quantities only
}

// TimerConfig configures a timer step.
type TimerConfig struct {
	TargetSeconds int
}

// ScaleConfig configures a scale step with inclusive integer bounds.
type ScaleConfig struct {
	MinValue int
	MaxValue int
}

// MeasurementType determines which target and actual fields a workout
// set legally carries.
type MeasurementType string

const (
	MeasureWeightReps   MeasurementType = "weight_reps"
	MeasureReps         MeasurementType = "reps"
	MeasureTime         MeasurementType = "time"
	MeasureDistanceTime MeasurementType = "distance_time"
)

// WorkoutConfig configures a workout step as an ordered exercise list.
type WorkoutConfig struct {
	Exercises []WorkoutExercise
}

// WorkoutExercise references an exercise and its planned sets.
type WorkoutExercise struct {
	ID           string
	ExerciseName string
	Measurement  MeasurementType
	OrderIndex   int
	Sets         []WorkoutSet
}

// WorkoutSet carries only the target fields legal for its exercise's
// measurement type; the rest stay nil.
type WorkoutSet struct {
	ID              string
	SetNumber       int
	TargetWeightKg  *float64
	TargetReps      *int
	TargetSeconds   *int
	TargetDistanceM *float64
}

// ValidateSteps checks a proposed step list at ritual creation or
// update time: order indexes must be a contiguous permutation of
// 0..n-1 and every step's payload must be structurally complete for
// its type. Steps are scanned in order_index order and the first
// violation wins, so error reporting is deterministic.
func ValidateSteps(steps []StepDefinition) error {
	ordered := make([]StepDefinition, len(steps))
	copy(ordered, steps)
	slices.SortFunc(ordered, func(a, b StepDefinition) int { return a.OrderIndex - b.OrderIndex })

	for i, step := range ordered {
		if step.OrderIndex != i {
			return &StepDefinitionError{StepIndex: step.OrderIndex, Reason: fmt.Sprintf("order indexes must form 0..%d without gaps", len(steps)-1)}
		}
		if err := validateStep(step); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step StepDefinition) error {
	fail := func(reason string) error {
		return &StepDefinitionError{StepIndex: step.OrderIndex, Reason: reason}
	}

	if strings.TrimSpace(step.Name) == "" {
		return fail("name is required")
	}

	// Config presence must match the step type exactly.
	if step.Counter != nil && step.Type != StepCounter {
		return fail("counter config on a non-counter step")
	}
	if step.Timer != nil && step.Type != StepTimer {
		return fail("timer config on a non-timer step")
	}
	if step.Scale != nil && step.Type != StepScale {
		return fail("scale config on a non-scale step")
	}
	if step.Workout != nil && step.Type != StepWorkout {
		return fail("workout config on a non-workout step")
	}

	switch step.Type {
	case StepBoolean, StepQNA:
		// No config.
	case StepCounter:
		if step.Counter == nil {
			return fail("counter steps need a counter config")
		}
		if step.Counter.TargetCount <= 0 {
			return fail("counter target must be positive")
		}
		if _, err := LookupQuantity(step.Counter.Quantity); err != nil {
			return fail(fmt.Sprintf("unknown quantity %q", step.Counter.Quantity))
		}
		if step.Counter.TargetSeconds < 0 {
			return fail("counter target duration cannot be negative")
		}
	case StepTimer:
		if step.Timer == nil {
			return fail("timer steps need a timer config")
		}
		if step.Timer.TargetSeconds <= 0 {
			return fail("timer target must be positive")
		}
	case StepScale:
		if step.Scale == nil {
			return fail("scale steps need a scale config")
		}
		if step.Scale.MinValue >= step.Scale.MaxValue {
			return fail(fmt.Sprintf("scale bounds %d..%d are not ascending", step.Scale.MinValue, step.Scale.MaxValue))
		}
	case StepWorkout:
		if step.Workout == nil || len(step.Workout.Exercises) == 0 {
			return fail("workout steps need at least one exercise")
		}
		for _, exercise := range step.Workout.Exercises {
			if err := validateExercise(step, exercise); err != nil {
				return err
			}
		}
	default:
		return fail(fmt.Sprintf("unknown step type %q", step.Type))
	}
	return nil
}

func validateExercise(step StepDefinition, exercise WorkoutExercise) error {
	fail := func(reason string) error {
		return &StepDefinitionError{StepIndex: step.OrderIndex, Reason: reason}
	}

	if strings.TrimSpace(exercise.ExerciseName) == "" {
		return fail("exercise name is required")
	}
	if len(exercise.Sets) == 0 {
		return fail(fmt.Sprintf("exercise %q needs at least one set", exercise.ExerciseName))
	}

	for i, set := range exercise.Sets {
		if set.SetNumber != i+1 {
			return fail(fmt.Sprintf("exercise %q set numbers must run 1..%d", exercise.ExerciseName, len(exercise.Sets)))
		}
		if err := checkSetShape(exercise.Measurement,
			set.TargetWeightKg != nil, set.TargetReps != nil,
			set.TargetSeconds != nil, set.TargetDistanceM != nil); err != nil {
			return fail(fmt.Sprintf("exercise %q set %d: %v", exercise.ExerciseName, set.SetNumber, err))
		}
	}
	return nil
}

// checkSetShape enforces that a set (target or actual) carries exactly
// the fields implied by the measurement type and no others.
func checkSetShape(measurement MeasurementType, hasWeight, hasReps, hasSeconds, hasDistance bool) error {
	switch measurement {
	case MeasureWeightReps:
		if !hasWeight || !hasReps {
			return fmt.Errorf("weight_reps sets need weight and reps")
		}
		if hasSeconds || hasDistance {
			return fmt.Errorf("weight_reps sets carry no seconds or distance")
		}
	case MeasureReps:
		if !hasReps {
			return fmt.Errorf("reps sets need reps")
		}
		if hasWeight || hasSeconds || hasDistance {
			return fmt.Errorf("reps sets carry only reps")
		}
	case MeasureTime:
		if !hasSeconds {
			return fmt.Errorf("time sets need seconds")
		}
		if hasWeight || hasReps || hasDistance {
			return fmt.Errorf("time sets carry only seconds")
		}
	case MeasureDistanceTime:
		if !hasDistance || !hasSeconds {
			return fmt.Errorf("distance_time sets need distance and seconds")
		}
		if hasWeight || hasReps {
			return fmt.Errorf("distance_time sets carry no weight or reps")
		}
	default:
		return fmt.Errorf("unknown measurement type %q", measurement)
	}
	return nil
}
