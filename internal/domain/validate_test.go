package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func twoStepRitual() []StepDefinition {
	return []StepDefinition{
		{ID: "step-bool", Name: "made the bed", Type: StepBoolean, Required: true, OrderIndex: 0},
		{ID: "step-qna", Name: "gratitude", Type: StepQNA, Required: false, OrderIndex: 1},
	}
}

func TestValidateResponsesFillsOptionalDefault(t *testing.T) {
	steps := twoStepRitual()
	responses := []StepResponse{
		{StepDefinitionID: "step-bool", Type: StepBoolean, ValueBoolean: boolPtr(true)},
	}

	out, err := ValidateResponses(steps, responses)
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.Equal(t, "step-bool", out[0].StepDefinitionID)
	require.False(t, out[0].Skipped)
	require.True(t, *out[0].ValueBoolean)

	require.Equal(t, "step-qna", out[1].StepDefinitionID)
	require.True(t, out[1].Skipped)
	require.Equal(t, "", *out[1].Answer)
}

func TestValidateResponsesMissingRequiredStep(t *testing.T) {
	steps := twoStepRitual()
	responses := []StepResponse{
		{StepDefinitionID: "step-qna", Type: StepQNA, Answer: strPtr("sunshine")},
	}

	_, err := ValidateResponses(steps, responses)
	var missing *MissingStepError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "step-bool", missing.StepID)
	require.Equal(t, "made the bed", missing.StepName)
}

func TestValidateResponsesTypeMismatch(t *testing.T) {
	steps := twoStepRitual()
	responses := []StepResponse{
		{StepDefinitionID: "step-bool", Type: StepQNA, Answer: strPtr("yes")},
	}

	_, err := ValidateResponses(steps, responses)
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "step-bool", mismatch.StepID)
}

func TestValidateResponsesRejectsForeignPayload(t *testing.T) {
	steps := twoStepRitual()
	count := 3.0
	responses := []StepResponse{
		{StepDefinitionID: "step-bool", Type: StepBoolean, ValueBoolean: boolPtr(true), ActualCount: &count},
	}

	_, err := ValidateResponses(steps, responses)
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestValidateResponsesUnknownAndDuplicateSteps(t *testing.T) {
	steps := twoStepRitual()

	_, err := ValidateResponses(steps, []StepResponse{
		{StepDefinitionID: "step-ghost", Type: StepBoolean, ValueBoolean: boolPtr(true)},
	})
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)

	_, err = ValidateResponses(steps, []StepResponse{
		{StepDefinitionID: "step-bool", Type: StepBoolean, ValueBoolean: boolPtr(true)},
		{StepDefinitionID: "step-bool", Type: StepBoolean, ValueBoolean: boolPtr(false)},
	})
	require.ErrorAs(t, err, &mismatch)
}

func TestValidateResponsesScaleBounds(t *testing.T) {
	steps := []StepDefinition{{
		ID: "step-mood", Name: "mood", Type: StepScale, Required: true, OrderIndex: 0,
		Scale: &ScaleConfig{MinValue: 1, MaxValue: 10},
	}}

	for _, value := range []int{1, 5, 10} {
		v := value
		out, err := ValidateResponses(steps, []StepResponse{
			{StepDefinitionID: "step-mood", Type: StepScale, ScaleResponse: &v},
		})
		require.NoError(t, err)
		require.Equal(t, value, *out[0].ScaleResponse)
	}

	for _, value := range []int{0, 11} {
		v := value
		_, err := ValidateResponses(steps, []StepResponse{
			{StepDefinitionID: "step-mood", Type: StepScale, ScaleResponse: &v},
		})
		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch, "value %d", value)
	}
}

func TestValidateResponsesNegativeValues(t *testing.T) {
	steps := []StepDefinition{
		{ID: "step-count", Name: "pushups", Type: StepCounter, Required: true, OrderIndex: 0,
			Counter: &CounterConfig{TargetCount: 20, Quantity: "count"}},
		{ID: "step-timer", Name: "plank", Type: StepTimer, Required: true, OrderIndex: 1,
			Timer: &TimerConfig{TargetSeconds: 60}},
	}
	count := -1.0
	seconds := 30

	_, err := ValidateResponses(steps, []StepResponse{
		{StepDefinitionID: "step-count", Type: StepCounter, ActualCount: &count},
		{StepDefinitionID: "step-timer", Type: StepTimer, ActualSeconds: &seconds},
	})
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestValidateResponsesWorkoutSets(t *testing.T) {
	steps := []StepDefinition{{
		ID: "step-lift", Name: "lift", Type: StepWorkout, Required: true, OrderIndex: 0,
		Workout: &WorkoutConfig{Exercises: []WorkoutExercise{{
			ID: "ex-1", ExerciseName: "bench press", Measurement: MeasureWeightReps,
			Sets: []WorkoutSet{
				{ID: "set-1", SetNumber: 1, TargetWeightKg: floatPtr(60), TargetReps: intPtr(8)},
				{ID: "set-2", SetNumber: 2, TargetWeightKg: floatPtr(60), TargetReps: intPtr(8)},
			},
		}}},
	}}

	good := []StepResponse{{
		StepDefinitionID: "step-lift", Type: StepWorkout,
		Sets: []WorkoutSetResponse{
			{WorkoutSetID: "set-1", ActualWeightKg: floatPtr(62.5), ActualReps: intPtr(8)},
			{WorkoutSetID: "set-2", ActualWeightKg: floatPtr(60), ActualReps: intPtr(6)},
		},
	}}
	out, err := ValidateResponses(steps, good)
	require.NoError(t, err)
	require.Len(t, out[0].Sets, 2)

	// A weight_reps set cannot carry a distance.
	badShape := []StepResponse{{
		StepDefinitionID: "step-lift", Type: StepWorkout,
		Sets: []WorkoutSetResponse{
			{WorkoutSetID: "set-1", ActualWeightKg: floatPtr(62.5), ActualReps: intPtr(8), ActualDistanceM: floatPtr(400)},
		},
	}}
	var mismatch *TypeMismatchError
	_, err = ValidateResponses(steps, badShape)
	require.ErrorAs(t, err, &mismatch)

	// Responses must reference planned sets of this step.
	foreign := []StepResponse{{
		StepDefinitionID: "step-lift", Type: StepWorkout,
		Sets: []WorkoutSetResponse{
			{WorkoutSetID: "set-99", ActualWeightKg: floatPtr(60), ActualReps: intPtr(8)},
		},
	}}
	_, err = ValidateResponses(steps, foreign)
	require.ErrorAs(t, err, &mismatch)

	// And at most once each.
	duplicate := []StepResponse{{
		StepDefinitionID: "step-lift", Type: StepWorkout,
		Sets: []WorkoutSetResponse{
			{WorkoutSetID: "set-1", ActualWeightKg: floatPtr(60), ActualReps: intPtr(8)},
			{WorkoutSetID: "set-1", ActualWeightKg: floatPtr(60), ActualReps: intPtr(8)},
		},
	}}
	_, err = ValidateResponses(steps, duplicate)
	require.ErrorAs(t, err, &mismatch)
}

func TestValidateResponsesOrdering(t *testing.T) {
	steps := []StepDefinition{
		{ID: "step-b", Name: "second", Type: StepBoolean, OrderIndex: 1},
		{ID: "step-a", Name: "first", Type: StepBoolean, OrderIndex: 0},
	}
	responses := []StepResponse{
		{StepDefinitionID: "step-b", Type: StepBoolean, ValueBoolean: boolPtr(true)},
		{StepDefinitionID: "step-a", Type: StepBoolean, ValueBoolean: boolPtr(false)},
	}

	out, err := ValidateResponses(steps, responses)
	require.NoError(t, err)
	require.Equal(t, "step-a", out[0].StepDefinitionID)
	require.Equal(t, "step-b", out[1].StepDefinitionID)
}

func TestDefaultResponsesPerKind(t *testing.T) {
	steps := []StepDefinition{
		{ID: "s0", Name: "a", Type: StepBoolean, OrderIndex: 0},
		{ID: "s1", Name: "b", Type: StepCounter, OrderIndex: 1, Counter: &CounterConfig{TargetCount: 5, Quantity: "count"}},
		{ID: "s2", Name: "c", Type: StepQNA, OrderIndex: 2},
		{ID: "s3", Name: "d", Type: StepTimer, OrderIndex: 3, Timer: &TimerConfig{TargetSeconds: 60}},
		{ID: "s4", Name: "e", Type: StepScale, OrderIndex: 4, Scale: &ScaleConfig{MinValue: 2, MaxValue: 8}},
		{ID: "s5", Name: "f", Type: StepWorkout, OrderIndex: 5, Workout: &WorkoutConfig{Exercises: []WorkoutExercise{{
			ID: "ex", ExerciseName: "row", Measurement: MeasureTime,
			Sets: []WorkoutSet{{ID: "set", SetNumber: 1, TargetSeconds: intPtr(120)}},
		}}}},
	}

	out, err := ValidateResponses(steps, nil)
	require.NoError(t, err)
	require.Len(t, out, 6)
	for _, resp := range out {
		require.True(t, resp.Skipped)
	}
	require.False(t, *out[0].ValueBoolean)
	require.Equal(t, 0.0, *out[1].ActualCount)
	require.Equal(t, "", *out[2].Answer)
	require.Equal(t, 0, *out[3].ActualSeconds)
	require.Equal(t, 2, *out[4].ScaleResponse) // scale defaults to its minimum
	require.Empty(t, out[5].Sets)
}
