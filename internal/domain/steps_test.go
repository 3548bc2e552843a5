package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int { return &v }

func benchPress(measurement MeasurementType, sets ...WorkoutSet) WorkoutConfig {
	return WorkoutConfig{Exercises: []WorkoutExercise{{
		ExerciseName: "bench press",
		Measurement:  measurement,
		Sets:         sets,
	}}}
}

func TestValidateStepsOrderIndexes(t *testing.T) {
	steps := []StepDefinition{
		{Name: "stretch", Type: StepBoolean, OrderIndex: 1},
		{Name: "hydrate", Type: StepBoolean, OrderIndex: 0},
		{Name: "journal", Type: StepQNA, OrderIndex: 2},
	}
	require.NoError(t, ValidateSteps(steps))

	// A gap in the order indexes is rejected.
	steps[2].OrderIndex = 3
	err := ValidateSteps(steps)
	var stepErr *StepDefinitionError
	require.ErrorAs(t, err, &stepErr)

	// So is a duplicate.
	steps[2].OrderIndex = 1
	require.ErrorAs(t, ValidateSteps(steps), &stepErr)
}

func TestValidateStepsConfigMatchesType(t *testing.T) {
	cases := []StepDefinition{
		{Name: "bad", Type: StepBoolean, Counter: &CounterConfig{TargetCount: 1, Quantity: "count"}},
		{Name: "bad", Type: StepCounter, Timer: &TimerConfig{TargetSeconds: 60}},
		{Name: "bad", Type: StepQNA, Scale: &ScaleConfig{MinValue: 1, MaxValue: 5}},
		{Name: "bad", Type: StepTimer, Workout: &WorkoutConfig{}},
		{Name: "bad", Type: StepCounter},
		{Name: "bad", Type: StepTimer},
		{Name: "bad", Type: StepScale},
		{Name: "bad", Type: StepWorkout},
		{Name: "bad", Type: "pomodoro"},
		{Name: "  ", Type: StepBoolean},
	}
	for _, step := range cases {
		err := ValidateSteps([]StepDefinition{step})
		var stepErr *StepDefinitionError
		require.ErrorAs(t, err, &stepErr, "step %+v", step)
	}
}

func TestValidateCounterStep(t *testing.T) {
	step := StepDefinition{
		Name: "drink water", Type: StepCounter,
		Counter: &CounterConfig{TargetCount: 2, Quantity: "volume_ml"},
	}
	require.NoError(t, ValidateSteps([]StepDefinition{step}))

	step.Counter.TargetCount = 0
	require.Error(t, ValidateSteps([]StepDefinition{step}))

	step.Counter.TargetCount = 2
	step.Counter.Quantity = "unknown"
	require.Error(t, ValidateSteps([]StepDefinition{step}))
}

func TestValidateScaleStepBounds(t *testing.T) {
	step := StepDefinition{Name: "mood", Type: StepScale, Scale: &ScaleConfig{MinValue: 1, MaxValue: 10}}
	require.NoError(t, ValidateSteps([]StepDefinition{step}))

	step.Scale = &ScaleConfig{MinValue: 5, MaxValue: 5}
	require.Error(t, ValidateSteps([]StepDefinition{step}))

	step.Scale = &ScaleConfig{MinValue: 10, MaxValue: 1}
	require.Error(t, ValidateSteps([]StepDefinition{step}))
}

func TestValidateWorkoutSetShapes(t *testing.T) {
	good := map[MeasurementType]WorkoutSet{
		MeasureWeightReps:   {SetNumber: 1, TargetWeightKg: floatPtr(60), TargetReps: intPtr(8)},
		MeasureReps:         {SetNumber: 1, TargetReps: intPtr(12)},
		MeasureTime:         {SetNumber: 1, TargetSeconds: intPtr(90)},
		MeasureDistanceTime: {SetNumber: 1, TargetDistanceM: floatPtr(1000), TargetSeconds: intPtr(300)},
	}
	for measurement, set := range good {
		cfg := benchPress(measurement, set)
		step := StepDefinition{Name: "lift", Type: StepWorkout, Workout: &cfg}
		require.NoError(t, ValidateSteps([]StepDefinition{step}), "measurement %s", measurement)
	}

	bad := map[MeasurementType]WorkoutSet{
		// Missing reps.
		MeasureWeightReps: {SetNumber: 1, TargetWeightKg: floatPtr(60)},
		// Stray weight.
		MeasureReps: {SetNumber: 1, TargetReps: intPtr(12), TargetWeightKg: floatPtr(20)},
		// Stray distance.
		MeasureTime: {SetNumber: 1, TargetSeconds: intPtr(90), TargetDistanceM: floatPtr(400)},
		// Missing seconds.
		MeasureDistanceTime: {SetNumber: 1, TargetDistanceM: floatPtr(1000)},
	}
	for measurement, set := range bad {
		cfg := benchPress(measurement, set)
		step := StepDefinition{Name: "lift", Type: StepWorkout, Workout: &cfg}
		require.Error(t, ValidateSteps([]StepDefinition{step}), "measurement %s", measurement)
	}
}

func TestValidateWorkoutSetNumbering(t *testing.T) {
	cfg := benchPress(MeasureReps,
		WorkoutSet{SetNumber: 1, TargetReps: intPtr(10)},
		WorkoutSet{SetNumber: 3, TargetReps: intPtr(10)},
	)
	step := StepDefinition{Name: "lift", Type: StepWorkout, Workout: &cfg}
	require.Error(t, ValidateSteps([]StepDefinition{step}))

	cfg.Exercises[0].Sets[1].SetNumber = 2
	require.NoError(t, ValidateSteps([]StepDefinition{step}))
}
