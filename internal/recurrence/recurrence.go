// Package recurrence decides whether a habit is expected to occur on a
// given calendar day. The same evaluation backs streak-break checks and
// reminder eligibility; callers apply their own archival filtering.
package recurrence

import (
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
)

// IsExpectedOn reports whether the habit was expected on the given date
// (YYYY-MM-DD). The comparison is calendar-day based: a habit is never
// expected before its creation day, a non-repeating habit is expected only
// on its creation day, and custom-interval habits are expected every N days
// counted from the creation day. A malformed date or unknown frequency is
// never expected.
func IsExpectedOn(habit models.Habit, dateStr string) bool {
	date, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return false
	}

	created := habit.CreatedAt.UTC()
	createdDay := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)

	if date.Before(createdDay) {
		return false
	}

	if !habit.Repeats {
		return date.Equal(createdDay)
	}

	switch habit.Frequency {
	case constants.FrequencyDaily:
		return true
	case constants.FrequencyWeekly:
		weekday := int(date.Weekday())
		for _, d := range habit.DaysOfWeek {
			if d == weekday {
				return true
			}
		}
		return false
	case constants.FrequencyCustom:
		if habit.CustomInterval < 1 {
			return false
		}
		elapsed := int(date.Sub(createdDay).Hours() / 24)
		return elapsed >= 0 && elapsed%habit.CustomInterval == 0
	default:
		return false
	}
}
