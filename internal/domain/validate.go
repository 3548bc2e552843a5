package domain

import (
	"fmt"
	"slices"
)

// ValidateResponses checks a candidate response set against the
// ritual's step definitions. Every required step must have a
// type-matching, structurally complete response; absent optional steps
// get a neutral default marked Skipped. The returned slice is ordered
// by step order_index. The function performs no I/O.
func ValidateResponses(steps []StepDefinition, responses []StepResponse) ([]StepResponse, error) {
	byStep := make(map[string]StepResponse, len(responses))
	for _, resp := range responses {
		if _, dup := byStep[resp.StepDefinitionID]; dup {
			return nil, &TypeMismatchError{StepID: resp.StepDefinitionID, Reason: "more than one response for the step"}
		}
		byStep[resp.StepDefinitionID] = resp
	}

	stepIDs := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		stepIDs[step.ID] = struct{}{}
	}
	for _, resp := range responses {
		if _, ok := stepIDs[resp.StepDefinitionID]; !ok {
			return nil, &TypeMismatchError{StepID: resp.StepDefinitionID, Reason: "no such step in the ritual"}
		}
	}

	ordered := make([]StepDefinition, len(steps))
	copy(ordered, steps)
	slices.SortFunc(ordered, func(a, b StepDefinition) int { return a.OrderIndex - b.OrderIndex })

	out := make([]StepResponse, 0, len(ordered))
	for _, step := range ordered {
		resp, ok := byStep[step.ID]
		if !ok {
			if step.Required {
				return nil, &MissingStepError{StepID: step.ID, StepName: step.Name}
			}
			out = append(out, defaultResponse(step))
			continue
		}
		if resp.Type != step.Type {
			return nil, &TypeMismatchError{StepID: step.ID, Reason: fmt.Sprintf("step is %s but response is %s", step.Type, resp.Type)}
		}
		if err := checkPayload(step, resp); err != nil {
			return nil, err
		}
		resp.Skipped = false
		out = append(out, resp)
	}
	return out, nil
}

// defaultResponse synthesizes the neutral placeholder for an absent
// optional step.
func defaultResponse(step StepDefinition) StepResponse {
	resp := StepResponse{
		StepDefinitionID: step.ID,
		Type:             step.Type,
		Skipped:          true,
	}
	switch step.Type {
	case StepBoolean:
		value := false
		resp.ValueBoolean = &value
	case StepCounter:
		count := 0.0
		resp.ActualCount = &count
	case StepTimer:
		seconds := 0
		resp.ActualSeconds = &seconds
	case StepQNA:
		answer := ""
		resp.Answer = &answer
	case StepScale:
		value := 0
		if step.Scale != nil {
			value = step.Scale.MinValue
		}
		resp.ScaleResponse = &value
	case StepWorkout:
		resp.Sets = []WorkoutSetResponse{}
	}
	return resp
}

func checkPayload(step StepDefinition, resp StepResponse) error {
	fail := func(reason string) error {
		return &TypeMismatchError{StepID: step.ID, Reason: reason}
	}

	// A response may carry only the payload field for its own kind.
	if resp.ValueBoolean != nil && step.Type != StepBoolean {
		return fail("unexpected boolean payload")
	}
	if resp.ActualCount != nil && step.Type != StepCounter {
		return fail("unexpected count payload")
	}
	if resp.Answer != nil && step.Type != StepQNA {
		return fail("unexpected answer payload")
	}
	if resp.ActualSeconds != nil && step.Type != StepTimer {
		return fail("unexpected seconds payload")
	}
	if resp.ScaleResponse != nil && step.Type != StepScale {
		return fail("unexpected scale payload")
	}
	if len(resp.Sets) > 0 && step.Type != StepWorkout {
		return fail("unexpected workout payload")
	}

	switch step.Type {
	case StepBoolean:
		if resp.ValueBoolean == nil {
			return fail("boolean responses need value_boolean")
		}
	case StepCounter:
		if resp.ActualCount == nil {
			return fail("counter responses need actual_count")
		}
		if *resp.ActualCount < 0 {
			return fail("actual_count cannot be negative")
		}
	case StepQNA:
		if resp.Answer == nil {
			return fail("qna responses need an answer")
		}
	case StepTimer:
		if resp.ActualSeconds == nil {
			return fail("timer responses need actual_seconds")
		}
		if *resp.ActualSeconds < 0 {
			return fail("actual_seconds cannot be negative")
		}
	case StepScale:
		if resp.ScaleResponse == nil {
			return fail("scale responses need scale_response")
		}
		if step.Scale != nil && (*resp.ScaleResponse < step.Scale.MinValue || *resp.ScaleResponse > step.Scale.MaxValue) {
			return fail(fmt.Sprintf("scale_response %d outside %d..%d", *resp.ScaleResponse, step.Scale.MinValue, step.Scale.MaxValue))
		}
	case StepWorkout:
		return checkWorkoutPayload(step, resp)
	}
	return nil
}

func checkWorkoutPayload(step StepDefinition, resp StepResponse) error {
	fail := func(reason string) error {
		return &TypeMismatchError{StepID: step.ID, Reason: reason}
	}
	if step.Workout == nil {
		return fail("workout step has no workout config")
	}

	measurementBySet := make(map[string]MeasurementType)
	for _, exercise := range step.Workout.Exercises {
		for _, set := range exercise.Sets {
			measurementBySet[set.ID] = exercise.Measurement
		}
	}

	answered := make(map[string]struct{}, len(resp.Sets))
	for _, set := range resp.Sets {
		measurement, ok := measurementBySet[set.WorkoutSetID]
		if !ok {
			return fail(fmt.Sprintf("set %s does not belong to this step", set.WorkoutSetID))
		}
		if _, dup := answered[set.WorkoutSetID]; dup {
			return fail(fmt.Sprintf("more than one response for set %s", set.WorkoutSetID))
		}
		answered[set.WorkoutSetID] = struct{}{}

		if err := checkSetShape(measurement,
			set.ActualWeightKg != nil, set.ActualReps != nil,
			set.ActualSeconds != nil, set.ActualDistanceM != nil); err != nil {
			return fail(fmt.Sprintf("set %s: %v", set.WorkoutSetID, err))
		}
	}
	return nil
}
