package domain

import (
	"iter"
	"slices"
	"time"
)

// DateOf truncates t to its calendar date in UTC. All recurrence math
// operates on dates produced by this helper.
func DateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from date a to date b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// OccursOn reports whether the rule makes the ritual due on candidate.
// The ritual's creation date anchors the schedule: no date before it is
// ever an occurrence, whatever the rule type. The rule is assumed
// already validated; a weekly rule with no days simply never occurs.
func OccursOn(rule FrequencyRule, created, candidate time.Time) bool {
	created = DateOf(created)
	candidate = DateOf(candidate)
	if candidate.Before(created) {
		return false
	}

	switch rule.Type {
	case FrequencyOnce:
		return candidate.Equal(created)
	case FrequencyDaily:
		interval := rule.Interval
		if interval < 1 {
			interval = 1
		}
		return DaysBetween(created, candidate) % interval == 0
	case FrequencyWeekly:
		return occursWeekly(rule, created, candidate)
	case FrequencyCustom:
		return slices.ContainsFunc(rule.SpecificDates, func(d time.Time) bool {
			return DateOf(d).Equal(candidate)
		})
	default:
		return false
	}
}

func occursWeekly(rule FrequencyRule, created, candidate time.Time) bool {
	if len(rule.DaysOfWeek) == 0 {
		return false
	}
	if !slices.Contains(rule.DaysOfWeek, int(candidate.Weekday())) {
		return false
	}
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}
	if interval == 1 {
		return true
	}

	// The first date on or after creation whose weekday is scheduled
	// anchors week zero. Weeks run Sunday through Saturday, matching
	// the 0=Sunday day numbering.
	first, ok := firstMatch(rule, created)
	if !ok {
		return false
	}
	weeks := DaysBetween(startOfWeek(first), startOfWeek(candidate)) / 7
	return weeks%interval == 0
}

func firstMatch(rule FrequencyRule, created time.Time) (time.Time, bool) {
	for i := 0; i < 7; i++ {
		d := created.AddDate(0, 0, i)
		if slices.Contains(rule.DaysOfWeek, int(d.Weekday())) {
			return d, true
		}
	}
	return time.Time{}, false
}

func startOfWeek(d time.Time) time.Time {
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// Occurrences yields every occurrence of the rule between from and to
// inclusive, in ascending order. The sequence is lazy and can be
// ranged over more than once.
func Occurrences(rule FrequencyRule, created, from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := DateOf(from); !d.After(DateOf(to)); d = d.AddDate(0, 0, 1) {
			if !OccursOn(rule, created, d) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}
