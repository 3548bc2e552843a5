// Package domain defines the ritual model and the business logic for
// recurrence resolution, completion recording and forking.
package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Visibility controls whether other users can see and fork a ritual.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Category is the closed set of ritual categories.
type Category string

const (
	CategoryHealth       Category = "health"
	CategoryFitness      Category = "fitness"
	CategoryMindfulness  Category = "mindfulness"
	CategoryProductivity Category = "productivity"
	CategoryLearning     Category = "learning"
	CategorySocial       Category = "social"
	CategoryOther        Category = "other"
)

var categories = []Category{
	CategoryHealth, CategoryFitness, CategoryMindfulness,
	CategoryProductivity, CategoryLearning, CategorySocial, CategoryOther,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	return slices.Contains(categories, c)
}

var scheduledTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// RitualDefinition is a user-defined recurring habit template composed
// of ordered steps and one frequency rule. The fork and completion
// counters are owned by the fork and completion flows respectively and
// only ever grow.
type RitualDefinition struct {
	ID              string
	OwnerID         string
	Name            string
	Category        Category
	Description     string
	Location        string
	Gear            []string
	Visibility      Visibility
	ScheduledTime   string // optional "HH:MM" display hint, never used for recurrence
	ForkedFromID    *string
	ForkCount       int
	CompletionCount int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Steps           []StepDefinition
	Frequency       FrequencyRule
}

// CreatedDate returns the calendar date the ritual was created on,
// which anchors recurrence resolution.
func (r RitualDefinition) CreatedDate() time.Time {
	return DateOf(r.CreatedAt)
}

// IsPublic reports whether the ritual is visible beyond its owner.
func (r RitualDefinition) IsPublic() bool {
	return r.Visibility == VisibilityPublic
}

// Validate checks the definition's own fields; steps and frequency are
// validated by ValidateSteps and FrequencyRule.Validate.
func (r RitualDefinition) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !ValidCategory(r.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, r.Category)
	}
	if r.Visibility != VisibilityPrivate && r.Visibility != VisibilityPublic {
		return fmt.Errorf("%w: unknown visibility %q", ErrValidation, r.Visibility)
	}
	if r.ScheduledTime != "" && !scheduledTimePattern.MatchString(r.ScheduledTime) {
		return fmt.Errorf("%w: scheduled_time must be HH:MM, got %q", ErrValidation, r.ScheduledTime)
	}
	return nil
}

// FrequencyType selects how occurrences of a ritual are derived.
type FrequencyType string

const (
	FrequencyOnce   FrequencyType = "once"
	FrequencyDaily  FrequencyType = "daily"
	FrequencyWeekly FrequencyType = "weekly"
	FrequencyCustom FrequencyType = "custom"
)

// FrequencyRule decides on which calendar dates a ritual is due.
// Exactly one of interval-only, days-of-week or specific-dates
// semantics is active, determined by Type.
type FrequencyRule struct {
	Type          FrequencyType
	Interval      int
	DaysOfWeek    []int       // 0=Sunday..6=Saturday, weekly only
	SpecificDates []time.Time // calendar dates, custom only
}

// Validate rejects rules whose populated fields do not match their type.
func (f FrequencyRule) Validate() error {
	switch f.Type {
	case FrequencyOnce:
		if f.Interval > 1 {
			return &FrequencyRuleError{Reason: "once rules carry no interval"}
		}
		if len(f.DaysOfWeek) > 0 || len(f.SpecificDates) > 0 {
			return &FrequencyRuleError{Reason: "once rules carry no days_of_week or specific_dates"}
		}
	case FrequencyDaily:
		if f.Interval < 1 {
			return &FrequencyRuleError{Reason: "daily rules need a positive interval"}
		}
		if len(f.DaysOfWeek) > 0 || len(f.SpecificDates) > 0 {
			return &FrequencyRuleError{Reason: "daily rules carry no days_of_week or specific_dates"}
		}
	case FrequencyWeekly:
		if f.Interval < 1 {
			return &FrequencyRuleError{Reason: "weekly rules need a positive interval"}
		}
		if len(f.SpecificDates) > 0 {
			return &FrequencyRuleError{Reason: "weekly rules carry no specific_dates"}
		}
		seen := make(map[int]struct{}, len(f.DaysOfWeek))
		for _, day := range f.DaysOfWeek {
			if day < 0 || day > 6 {
				return &FrequencyRuleError{Reason: fmt.Sprintf("day_of_week %d out of range 0-6", day)}
			}
			if _, dup := seen[day]; dup {
				return &FrequencyRuleError{Reason: fmt.Sprintf("duplicate day_of_week %d", day)}
			}
			seen[day] = struct{}{}
		}
	case FrequencyCustom:
		if f.Interval > 1 {
			return &FrequencyRuleError{Reason: "custom rules carry no interval"}
		}
		if len(f.DaysOfWeek) > 0 {
			return &FrequencyRuleError{Reason: "custom rules carry no days_of_week"}
		}
		if len(f.SpecificDates) == 0 {
			return &FrequencyRuleError{Reason: "custom rules need at least one specific date"}
		}
	default:
		return &FrequencyRuleError{Reason: fmt.Sprintf("unknown frequency type %q", f.Type)}
	}
	return nil
}

// UserStreak tracks consecutive qualifying completions for a user.
// Completion recording only ever increments it; misses are detected by
// the daily sweep job.
type UserStreak struct {
	UserID            string
	Current           int
	Longest           int
	LastCompletedDate time.Time
	UpdatedAt         time.Time
}
