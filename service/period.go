package services

import (
	"fmt"
	"time"

	model "github.com/brightpathbh/qmportal/models"
)

// LastBusinessDay returns the last Mon-Fri day of the given calendar month.
// It governs the due date for every checkpoint generated in that month,
// regardless of the control's recurrence.
func LastBusinessDay(year int, month time.Month) time.Time {
	// Day 0 of the next month is the last day of this one.
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// MatchesPeriod reports whether a control of the given recurrence generates
// a checkpoint in the given calendar month. Boundaries are fixed to the
// calendar: quarterly controls fire in the quarter-end months, not on a
// rolling window from when the control was added.
func MatchesPeriod(recurrence model.Recurrence, month time.Month) bool {
	switch recurrence {
	case model.RecurrenceMonthly:
		return true
	case model.RecurrenceQuarterly:
		return month == time.March || month == time.June ||
			month == time.September || month == time.December
	case model.RecurrenceSemiAnnual:
		return month == time.June || month == time.December
	case model.RecurrenceAnnual:
		return month == time.December
	}
	return false
}

// PeriodLabel builds the dedup-key label for a (recurrence, year, month)
// triple. Labels are shaped by recurrence, so a monthly and a quarterly
// control generated in the same month can never collide on the key.
func PeriodLabel(recurrence model.Recurrence, year int, month time.Month) string {
	switch recurrence {
	case model.RecurrenceQuarterly:
		return fmt.Sprintf("%d-Q%d", year, (int(month)+2)/3)
	case model.RecurrenceSemiAnnual:
		if month <= time.June {
			return fmt.Sprintf("%d-H1", year)
		}
		return fmt.Sprintf("%d-H2", year)
	case model.RecurrenceAnnual:
		return fmt.Sprintf("%d", year)
	default:
		return fmt.Sprintf("%d-%02d", year, int(month))
	}
}
