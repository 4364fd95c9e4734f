// Package recurrence computes the next occurrence of a repeating task.
package recurrence

import (
	"time"

	"github.com/nissyi-gh/taskdeck/internal/model"
)

const dayFormat = "2006-01-02"

// NextDueDate returns the due date of the successor task spawned when a
// recurring task completes: the anchor date advanced by exactly one
// rule unit. It returns nil when the task does not recur, has no anchor
// date, or the anchor does not parse.
//
// Month and year steps clamp to the last day of the target month, so a
// task due Jan 31 recurs on Feb 29 in a leap year rather than skipping
// into March.
func NextDueDate(currentDueDate *string, rule model.Recurrence) *string {
	if rule == model.NoRecurrence || currentDueDate == nil {
		return nil
	}
	base, err := time.Parse(dayFormat, *currentDueDate)
	if err != nil {
		return nil
	}

	var next time.Time
	switch rule {
	case model.Daily:
		next = base.AddDate(0, 0, 1)
	case model.Weekly:
		next = base.AddDate(0, 0, 7)
	case model.Monthly:
		next = addMonthsClamped(base, 1)
	case model.Yearly:
		next = addMonthsClamped(base, 12)
	default:
		return nil
	}

	s := next.Format(dayFormat)
	return &s
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
