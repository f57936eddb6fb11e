package models

import "time"

// BrokenHabit describes one habit whose streak was reset by a daily check.
type BrokenHabit struct {
	HabitID        string `json:"habit_id"`
	HabitName      string `json:"habit_name"`
	PreviousStreak int    `json:"previous_streak"`
	Date           string `json:"date"` // the missed day, YYYY-MM-DD
}

// FishDeath describes one fish that died during a vitality sweep.
type FishDeath struct {
	FishID   string `json:"fish_id"`
	FishName string `json:"fish_name"`
	HabitID  string `json:"habit_id"`
}

// DailyCheckReport is the structured result of one daily check pass.
// Errors holds sub-step failures; steps that succeeded before a failure
// keep their results.
type DailyCheckReport struct {
	Timestamp          time.Time     `json:"timestamp"`
	UserStreakBroken   bool          `json:"user_streak_broken"`
	PreviousUserStreak int           `json:"previous_user_streak,omitempty"`
	BrokenHabits       []BrokenHabit `json:"broken_habits"`
	HabitsChecked      int           `json:"habits_checked"`
	FishChecked        int           `json:"fish_checked"`
	Deaths             []FishDeath   `json:"deaths"`
	Errors             []string      `json:"errors,omitempty"`
}

// CatchUpReport is the result of a multi-day catch-up sweep.
type CatchUpReport struct {
	DaysChecked   int           `json:"days_checked"`
	MissedDays    []string      `json:"missed_days"`
	StreaksBroken bool          `json:"streaks_broken"`
	BrokenHabits  []BrokenHabit `json:"broken_habits"`
	Errors        []string      `json:"errors,omitempty"`
}

// StatusSummary captures the user's standing for today.
type StatusSummary struct {
	Date            string `json:"date"`
	TotalHabits     int    `json:"total_habits"`
	CompletedHabits int    `json:"completed_habits"`
	RemainingHabits int    `json:"remaining_habits"`
	CompletionRate  int    `json:"completion_rate"` // percent, rounded
}
