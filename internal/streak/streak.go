// Package streak maintains the two streak domains: each habit's own streak
// and the user's aggregate streak (one completed habit per day keeps it
// alive). Break checks are driven by yesterday's records and are
// idempotent; re-running them against already-zero streaks writes nothing.
package streak

import (
	"fmt"
	"time"

	"github.com/fishbit-app/fishbit/internal/logger"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/recurrence"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/timeclock"
)

type Engine struct {
	store storage.Provider
	clock *timeclock.Clock
}

func NewEngine(store storage.Provider, clock *timeclock.Clock) *Engine {
	return &Engine{
		store: store,
		clock: clock,
	}
}

// UserStreakResult describes the outcome of a user-aggregate break check.
type UserStreakResult struct {
	Broken          bool
	PreviousStreak  int
	Date            string
	HabitsCompleted int
}

// HabitCheckResult describes the outcome of a per-habit break check pass.
type HabitCheckResult struct {
	TotalChecked int
	Broken       []models.BrokenHabit
}

// CheckUserStreak breaks the user's aggregate streak if no habit at all was
// completed yesterday. A streak that is already zero is left untouched.
func (e *Engine) CheckUserStreak(userID string) (UserStreakResult, error) {
	yesterday := e.clock.YesterdayString()

	user, err := e.store.GetUser(userID)
	if err != nil {
		return UserStreakResult{}, fmt.Errorf("loading user: %w", err)
	}

	if user.CurrentStreak == 0 {
		return UserStreakResult{Date: yesterday}, nil
	}

	completed, err := e.store.GetCompletedForDay(userID, yesterday)
	if err != nil {
		return UserStreakResult{}, fmt.Errorf("querying completions for %s: %w", yesterday, err)
	}

	if len(completed) > 0 {
		return UserStreakResult{Date: yesterday, HabitsCompleted: len(completed)}, nil
	}

	previous := user.CurrentStreak
	if err := e.SetUserStreak(userID, 0); err != nil {
		return UserStreakResult{}, err
	}
	logger.Warn("user streak broken", "previous", previous, "date", yesterday)

	return UserStreakResult{Broken: true, PreviousStreak: previous, Date: yesterday}, nil
}

// CheckHabitStreaks breaks the streak of every active, non-archived habit
// that was expected yesterday but has no completed record for that day.
// Habits not expected yesterday keep their streak; so do habits whose
// streak is already zero.
func (e *Engine) CheckHabitStreaks(userID string) (HabitCheckResult, error) {
	yesterday := e.clock.YesterdayString()

	habits, err := e.store.GetAllHabits(userID, false)
	if err != nil {
		return HabitCheckResult{}, fmt.Errorf("loading habits: %w", err)
	}

	result := HabitCheckResult{}
	for _, habit := range habits {
		if !habit.IsActive {
			continue
		}
		result.TotalChecked++

		if habit.CurrentStreak == 0 {
			continue
		}
		if !recurrence.IsExpectedOn(habit, yesterday) {
			continue
		}

		record, err := e.store.GetProgress(habit.ID, yesterday)
		if err == nil && record.Completed {
			continue
		}
		if err != nil && err != storage.ErrNotFound {
			return result, fmt.Errorf("querying progress for habit %s: %w", habit.ID, err)
		}

		previous := habit.CurrentStreak
		if err := e.BreakHabitStreak(habit); err != nil {
			return result, err
		}

		result.Broken = append(result.Broken, models.BrokenHabit{
			HabitID:        habit.ID,
			HabitName:      habit.Name,
			PreviousStreak: previous,
			Date:           yesterday,
		})
	}

	return result, nil
}

// BreakHabitStreak resets a habit's streak to zero and stamps the break time.
func (e *Engine) BreakHabitStreak(habit models.Habit) error {
	now := e.clock.Now()
	habit.CurrentStreak = 0
	habit.LastStreakBreak = &now

	if err := e.store.UpdateHabit(habit); err != nil {
		return fmt.Errorf("breaking streak for habit %s: %w", habit.ID, err)
	}
	logger.Info("habit streak broken", "habit", habit.Name)
	return nil
}

// SetUserStreak writes a new aggregate streak, ratcheting the longest
// streak when exceeded.
func (e *Engine) SetUserStreak(userID string, newStreak int) error {
	user, err := e.store.GetUser(userID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}

	user.CurrentStreak = newStreak
	if newStreak > user.LongestStreak {
		user.LongestStreak = newStreak
	}

	if err := e.store.UpdateUser(user); err != nil {
		return fmt.Errorf("updating user streak: %w", err)
	}
	return nil
}

// SweepMissedDays scans the last N days for days with no completions at
// all. If any exist, the user streak is broken once and every habit with a
// positive streak is reset, without per-habit recurrence filtering. This
// coarse sweep is deliberate: after a long absence, precision about which
// habit was due on which missed day no longer matters.
func (e *Engine) SweepMissedDays(userID string, days int) (models.CatchUpReport, error) {
	report := models.CatchUpReport{DaysChecked: days}

	for i := 1; i <= days; i++ {
		day := e.clock.DateString(i)
		completed, err := e.store.GetCompletedForDay(userID, day)
		if err != nil {
			return report, fmt.Errorf("querying completions for %s: %w", day, err)
		}
		if len(completed) == 0 {
			report.MissedDays = append(report.MissedDays, day)
		}
	}

	if len(report.MissedDays) == 0 {
		return report, nil
	}
	logger.Warn("missed days found, breaking streaks", "count", len(report.MissedDays))

	user, err := e.store.GetUser(userID)
	if err != nil {
		return report, fmt.Errorf("loading user: %w", err)
	}
	if user.CurrentStreak > 0 {
		if err := e.SetUserStreak(userID, 0); err != nil {
			return report, err
		}
		report.StreaksBroken = true
	}

	habits, err := e.store.GetAllHabits(userID, true)
	if err != nil {
		return report, fmt.Errorf("loading habits: %w", err)
	}
	for _, habit := range habits {
		if habit.CurrentStreak == 0 {
			continue
		}
		previous := habit.CurrentStreak
		if err := e.BreakHabitStreak(habit); err != nil {
			return report, err
		}
		report.BrokenHabits = append(report.BrokenHabits, models.BrokenHabit{
			HabitID:        habit.ID,
			HabitName:      habit.Name,
			PreviousStreak: previous,
			Date:           report.MissedDays[0],
		})
	}

	return report, nil
}

// NextHabitStreak computes the habit streak after a completion at the given
// time: consecutive calendar days extend the streak, a same-day re-entry
// leaves it unchanged, and any gap restarts it at one.
func NextHabitStreak(habit models.Habit, now time.Time) int {
	if habit.LastCompletedAt == nil {
		return 1
	}

	last := habit.LastCompletedAt.UTC()
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	nowUTC := now.UTC()
	today := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)

	switch int(today.Sub(lastDay).Hours() / 24) {
	case 0:
		if habit.CurrentStreak == 0 {
			return 1
		}
		return habit.CurrentStreak
	case 1:
		return habit.CurrentStreak + 1
	default:
		return 1
	}
}

// UserStreakAfterCompletion computes the aggregate streak after a habit
// completion today. When this is the second (or later) completion of the
// day the streak was already advanced; a first completion extends
// yesterday's streak or restarts at one.
func (e *Engine) UserStreakAfterCompletion(userID string) (int, error) {
	user, err := e.store.GetUser(userID)
	if err != nil {
		return 0, fmt.Errorf("loading user: %w", err)
	}

	today, err := e.store.GetCompletedForDay(userID, e.clock.TodayString())
	if err != nil {
		return 0, fmt.Errorf("querying today's completions: %w", err)
	}
	if len(today) > 1 {
		if user.CurrentStreak == 0 {
			return 1, nil
		}
		return user.CurrentStreak, nil
	}

	yesterday, err := e.store.GetCompletedForDay(userID, e.clock.YesterdayString())
	if err != nil {
		return 0, fmt.Errorf("querying yesterday's completions: %w", err)
	}
	if len(yesterday) > 0 {
		return user.CurrentStreak + 1, nil
	}
	return 1, nil
}
