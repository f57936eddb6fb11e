package models

import (
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
)

// Habit represents a recurring practice the user wants to track.
// CurrentStreak and BestStreak are maintained by the streak engine;
// CurrentStreak never exceeds BestStreak.
type Habit struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Name            string              `json:"name"`
	Description     string              `json:"description,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	IsActive        bool                `json:"is_active"`
	IsArchived      bool                `json:"is_archived"`
	ArchivedAt      *time.Time          `json:"archived_at,omitempty"`
	Repeats         bool                `json:"repeats"`
	Frequency       constants.Frequency `json:"frequency"`
	DaysOfWeek      []int               `json:"days_of_week,omitempty"` // 0 = Sunday .. 6 = Saturday, weekly only
	CustomInterval  int                 `json:"custom_interval,omitempty"`
	CurrentStreak   int                 `json:"current_streak"`
	BestStreak      int                 `json:"best_streak"`
	CompletedCount  int                 `json:"completed_count"`
	LastCompletedAt *time.Time          `json:"last_completed_at,omitempty"`
	LastStreakBreak *time.Time          `json:"last_streak_break,omitempty"`
}

// Progress records a single habit completion for one calendar day.
// There is at most one record per habit per day, keyed by (HabitID, Date).
type Progress struct {
	HabitID      string    `json:"habit_id"`
	UserID       string    `json:"user_id"`
	Date         string    `json:"date"` // YYYY-MM-DD format
	Completed    bool      `json:"completed"`
	Timestamp    time.Time `json:"timestamp"`
	PointsEarned int       `json:"points_earned"`
}

// ProgressKey returns the storage key for a habit's record on a day.
func ProgressKey(habitID, date string) string {
	return habitID + "_" + date
}
