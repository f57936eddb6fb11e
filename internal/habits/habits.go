// Package habits implements the completion forward path: recording a
// completion, advancing both streak domains, awarding points, and feeding
// the linked fish.
package habits

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/logger"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/streak"
	"github.com/fishbit-app/fishbit/internal/timeclock"
	"github.com/fishbit-app/fishbit/internal/validation"
	"github.com/fishbit-app/fishbit/internal/vitality"
)

// ErrAlreadyCompleted is returned when a habit is completed a second time
// on the same calendar day. No mutation besides restoring the record's
// completed flag happens on the rejected attempt.
var ErrAlreadyCompleted = errors.New("habit already completed today")

type Service struct {
	store    storage.Provider
	clock    *timeclock.Clock
	streaks  *streak.Engine
	vitality *vitality.Engine
}

func NewService(store storage.Provider, clock *timeclock.Clock, streaks *streak.Engine, vit *vitality.Engine) *Service {
	return &Service{
		store:    store,
		clock:    clock,
		streaks:  streaks,
		vitality: vit,
	}
}

// CompletionResult reports what a completion earned.
type CompletionResult struct {
	HabitStreak int
	UserStreak  int
	Points      int
	Bonus       int
}

// Create validates and stores a new habit, and spawns its fish companion
// with a randomly picked species.
func (s *Service) Create(habit models.Habit) (models.Habit, error) {
	now := s.clock.Now()
	habit.ID = uuid.New().String()
	habit.CreatedAt = now
	habit.IsActive = true
	habit.IsArchived = false
	habit.CurrentStreak = 0
	habit.BestStreak = 0
	habit.CompletedCount = 0

	if err := validation.ValidateHabit(habit); err != nil {
		return models.Habit{}, err
	}

	if _, err := s.store.GetHabitByName(habit.UserID, habit.Name); err == nil {
		return models.Habit{}, fmt.Errorf("habit with name %q already exists", habit.Name)
	}

	if err := s.store.AddHabit(habit); err != nil {
		return models.Habit{}, fmt.Errorf("adding habit: %w", err)
	}

	species := models.FishSpecies[rand.Intn(len(models.FishSpecies))]
	fish := models.Fish{
		ID:        uuid.New().String(),
		UserID:    habit.UserID,
		HabitID:   habit.ID,
		Name:      fmt.Sprintf("%s's %s", habit.Name, species),
		Species:   species,
		CreatedAt: now,
		IsAlive:   true,
		LastFedAt: &now,
	}
	if err := s.store.AddFish(fish); err != nil {
		// The habit exists either way; a missing fish is recoverable.
		logger.Error("failed to create fish for habit", "habit", habit.Name, "error", err)
	}

	return habit, nil
}

// Complete records today's completion for the habit. A second attempt on
// the same day is rejected with ErrAlreadyCompleted and earns nothing; if
// the existing record had been undone, its completed flag is restored
// (without re-awarding points or streaks).
func (s *Service) Complete(habitID string) (CompletionResult, error) {
	habit, err := s.store.GetHabit(habitID)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("loading habit: %w", err)
	}

	now := s.clock.Now()
	today := s.clock.TodayString()

	existing, err := s.store.GetProgress(habit.ID, today)
	if err == nil {
		if !existing.Completed {
			existing.Completed = true
			if err := s.store.UpdateProgress(existing); err != nil {
				return CompletionResult{}, fmt.Errorf("restoring progress record: %w", err)
			}
		}
		return CompletionResult{}, ErrAlreadyCompleted
	}
	if err != storage.ErrNotFound {
		return CompletionResult{}, fmt.Errorf("querying progress: %w", err)
	}

	record := models.Progress{
		HabitID:      habit.ID,
		UserID:       habit.UserID,
		Date:         today,
		Completed:    true,
		Timestamp:    now,
		PointsEarned: constants.PointsPerCompletion,
	}
	if err := s.store.AddProgress(record); err != nil {
		return CompletionResult{}, fmt.Errorf("recording completion: %w", err)
	}

	newStreak := streak.NextHabitStreak(habit, now)
	habit.LastCompletedAt = &now
	habit.CurrentStreak = newStreak
	if newStreak > habit.BestStreak {
		habit.BestStreak = newStreak
	}
	habit.CompletedCount++
	if err := s.store.UpdateHabit(habit); err != nil {
		return CompletionResult{}, fmt.Errorf("updating habit: %w", err)
	}

	userStreak, err := s.streaks.UserStreakAfterCompletion(habit.UserID)
	if err != nil {
		return CompletionResult{}, err
	}
	if err := s.streaks.SetUserStreak(habit.UserID, userStreak); err != nil {
		return CompletionResult{}, err
	}

	bonus := 0
	switch newStreak {
	case constants.WeekStreakLength:
		bonus = constants.WeekStreakBonus
	case constants.MonthStreakLength:
		bonus = constants.MonthStreakBonus
	}
	if err := s.addPoints(habit.UserID, constants.PointsPerCompletion+bonus); err != nil {
		return CompletionResult{}, err
	}

	s.feedLinkedFish(habit.ID)

	logger.Info("habit completed", "habit", habit.Name, "streak", newStreak)
	return CompletionResult{
		HabitStreak: newStreak,
		UserStreak:  userStreak,
		Points:      constants.PointsPerCompletion,
		Bonus:       bonus,
	}, nil
}

// Undo flips today's record back to not-completed. The record itself stays
// under the same key; points and streak adjustments are not rolled back.
func (s *Service) Undo(habitID string) error {
	today := s.clock.TodayString()

	record, err := s.store.GetProgress(habitID, today)
	if err == storage.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("querying progress: %w", err)
	}

	record.Completed = false
	if err := s.store.UpdateProgress(record); err != nil {
		return fmt.Errorf("undoing completion: %w", err)
	}
	return nil
}

// Archive freezes a habit: it stops being expected, and its fish stops
// losing health.
func (s *Service) Archive(habitID string) error {
	habit, err := s.store.GetHabit(habitID)
	if err != nil {
		return fmt.Errorf("loading habit: %w", err)
	}

	now := s.clock.Now()
	habit.IsArchived = true
	habit.ArchivedAt = &now
	if err := s.store.UpdateHabit(habit); err != nil {
		return fmt.Errorf("archiving habit: %w", err)
	}
	return nil
}

// Unarchive reactivates an archived habit.
func (s *Service) Unarchive(habitID string) error {
	habit, err := s.store.GetHabit(habitID)
	if err != nil {
		return fmt.Errorf("loading habit: %w", err)
	}

	habit.IsArchived = false
	habit.ArchivedAt = nil
	if err := s.store.UpdateHabit(habit); err != nil {
		return fmt.Errorf("unarchiving habit: %w", err)
	}
	return nil
}

func (s *Service) addPoints(userID string, points int) error {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	user.TotalPoints += points
	if err := s.store.UpdateUser(user); err != nil {
		return fmt.Errorf("updating points: %w", err)
	}
	return nil
}

// feedLinkedFish feeds every living fish attached to the habit. Feeding
// failures are logged, not surfaced; the completion already happened.
func (s *Service) feedLinkedFish(habitID string) {
	fish, err := s.store.GetFishByHabit(habitID)
	if err != nil {
		logger.Warn("could not load fish for habit", "habit_id", habitID, "error", err)
		return
	}
	for _, f := range fish {
		if !f.IsAlive {
			continue
		}
		if err := s.vitality.Feed(f.ID); err != nil {
			logger.Warn("could not feed fish", "fish", f.Name, "error", err)
		}
	}
}
