package validation

import (
	"fmt"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
)

// ValidateHabit checks a habit definition before it is stored.
func ValidateHabit(habit models.Habit) error {
	if habit.Name == "" {
		return fmt.Errorf("habit name cannot be empty")
	}

	if !habit.Repeats {
		// One-time habits carry no recurrence rule
		return nil
	}

	switch habit.Frequency {
	case constants.FrequencyDaily:
		return nil
	case constants.FrequencyWeekly:
		if len(habit.DaysOfWeek) == 0 {
			return fmt.Errorf("weekdays must be specified for weekly habits")
		}
		for _, d := range habit.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("invalid weekday %d (expected 0-6)", d)
			}
		}
		return nil
	case constants.FrequencyCustom:
		if habit.CustomInterval < 1 {
			return fmt.Errorf("interval must be at least 1 for custom frequency habits")
		}
		return nil
	default:
		return fmt.Errorf("unknown frequency %q", habit.Frequency)
	}
}
