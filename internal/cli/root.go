package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/dailycheck"
	"github.com/fishbit-app/fishbit/internal/habits"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/reminder"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/timeclock"
	"github.com/fishbit-app/fishbit/internal/vitality"
)

type Context struct {
	Store     storage.Provider
	Clock     *timeclock.Clock
	Habits    *habits.Service
	Vitality  *vitality.Engine
	Checks    *dailycheck.Service
	Reminders *reminder.Service
	UserID    string
}

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
)

// ParseWeekdays parses a comma-separated list of weekdays into 0-6 values
// (0=Sunday).
func ParseWeekdays(s string) ([]int, error) {
	dayMap := map[string]int{
		"sun": 0, "sunday": 0,
		"mon": 1, "monday": 1,
		"tue": 2, "tuesday": 2,
		"wed": 3, "wednesday": 3,
		"thu": 4, "thursday": 4,
		"fri": 5, "friday": 5,
		"sat": 6, "saturday": 6,
	}

	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if d, ok := dayMap[part]; ok {
			days = append(days, d)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 6 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		days = append(days, num)
	}
	return days, nil
}

// FormatSchedule formats a habit's recurrence into a human-readable string.
func FormatSchedule(habit models.Habit) string {
	if !habit.Repeats {
		return "one-time"
	}
	switch habit.Frequency {
	case constants.FrequencyDaily:
		return "daily"
	case constants.FrequencyWeekly:
		if len(habit.DaysOfWeek) > 0 {
			names := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
			var days []string
			for _, d := range habit.DaysOfWeek {
				if d >= 0 && d < len(names) {
					days = append(days, names[d])
				}
			}
			return fmt.Sprintf("weekly on %s", strings.Join(days, ","))
		}
		return "weekly"
	case constants.FrequencyCustom:
		return fmt.Sprintf("every %d days", habit.CustomInterval)
	default:
		return "unknown"
	}
}
