package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRitualNotFound is returned when a ritual cannot be located.
	ErrRitualNotFound = errors.New("ritual not found")
	// ErrForbidden indicates the caller may not act on the ritual.
	ErrForbidden = errors.New("ritual access denied")
	// ErrDuplicateCompletion indicates the ritual was already completed for the date.
	ErrDuplicateCompletion = errors.New("ritual already completed for this date")
	// ErrInvalidQuantity indicates an unknown or malformed physical quantity.
	ErrInvalidQuantity = errors.New("invalid physical quantity")
	// ErrValidation tags malformed ritual fields rejected before any write.
	ErrValidation = errors.New("invalid ritual definition")
)

// StepDefinitionError reports the first structural problem found in a
// ritual's step list, identified by the step's order index.
type StepDefinitionError struct {
	StepIndex int
	Reason    string
}

func (e *StepDefinitionError) Error() string {
	return fmt.Sprintf("invalid step definition at index %d: %s", e.StepIndex, e.Reason)
}

// FrequencyRuleError reports a frequency rule whose populated fields do
// not match its type.
type FrequencyRuleError struct {
	Reason string
}

func (e *FrequencyRuleError) Error() string {
	return fmt.Sprintf("invalid frequency rule: %s", e.Reason)
}

// MissingStepError indicates a required step had no response.
type MissingStepError struct {
	StepID   string
	StepName string
}

func (e *MissingStepError) Error() string {
	return fmt.Sprintf("missing response for required step %q (%s)", e.StepName, e.StepID)
}

// TypeMismatchError indicates a response whose type or payload shape
// does not match its step definition.
type TypeMismatchError struct {
	StepID string
	Reason string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("response does not match step %s: %s", e.StepID, e.Reason)
}
