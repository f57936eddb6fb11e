// Package dailycheck coordinates the reconciliation pass that runs once per
// logical day: user streak break check, per-habit break checks, and the
// fish vitality sweep. At most one pass runs per process at a time; a
// concurrent caller gets the previous report back instead of a second pass.
package dailycheck

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/fishbit-app/fishbit/internal/logger"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/recurrence"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/streak"
	"github.com/fishbit-app/fishbit/internal/timeclock"
	"github.com/fishbit-app/fishbit/internal/vitality"
)

const (
	stateIdle int32 = iota
	stateChecking
)

type Service struct {
	store    storage.Provider
	clock    *timeclock.Clock
	streaks  *streak.Engine
	vitality *vitality.Engine

	state      atomic.Int32
	mu         sync.Mutex
	lastReport *models.DailyCheckReport
}

func New(store storage.Provider, clock *timeclock.Clock, streaks *streak.Engine, vit *vitality.Engine) *Service {
	return &Service{
		store:    store,
		clock:    clock,
		streaks:  streaks,
		vitality: vit,
	}
}

// Run executes one daily check pass for the user. Sub-step failures are
// recorded in the report and do not abort later steps; the reentrancy
// guard is always released. When includeFish is false the vitality sweep
// is skipped. If a pass is already in flight, the previous report is
// returned unchanged.
func (s *Service) Run(userID string, includeFish bool) *models.DailyCheckReport {
	if !s.state.CompareAndSwap(stateIdle, stateChecking) {
		logger.Warn("daily check already in progress, returning previous result")
		return s.LastReport()
	}
	defer s.state.Store(stateIdle)

	report := &models.DailyCheckReport{
		Timestamp:    s.clock.Now(),
		BrokenHabits: []models.BrokenHabit{},
		Deaths:       []models.FishDeath{},
	}
	logger.Debug("starting daily checks", "user", userID)

	userResult, err := s.streaks.CheckUserStreak(userID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("user streak check: %v", err))
	} else {
		report.UserStreakBroken = userResult.Broken
		report.PreviousUserStreak = userResult.PreviousStreak
	}

	habitResult, err := s.streaks.CheckHabitStreaks(userID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("habit streak check: %v", err))
	}
	report.HabitsChecked = habitResult.TotalChecked
	if habitResult.Broken != nil {
		report.BrokenHabits = habitResult.Broken
	}

	if includeFish {
		// Without the archival state the sweep could starve a frozen fish,
		// and death is irreversible, so the whole step is skipped instead.
		archived, err := s.archivedPredicate(userID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("loading habits for fish sweep: %v", err))
		} else {
			sweep, err := s.vitality.Sweep(userID, archived)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("vitality sweep: %v", err))
			}
			report.FishChecked = sweep.Checked
			if sweep.Deaths != nil {
				report.Deaths = sweep.Deaths
			}
		}
	}

	s.clock.MarkDailyCheckDone()

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	logger.Info("daily checks complete",
		"habits_checked", report.HabitsChecked,
		"broken", len(report.BrokenHabits),
		"deaths", len(report.Deaths),
		"errors", len(report.Errors))
	return report
}

// CatchUp runs the multi-day sweep for a user who has been away, then the
// regular daily check pass.
func (s *Service) CatchUp(userID string, days int, includeFish bool) (models.CatchUpReport, *models.DailyCheckReport) {
	catchUp, err := s.streaks.SweepMissedDays(userID, days)
	if err != nil {
		catchUp.Errors = append(catchUp.Errors, err.Error())
	}
	report := s.Run(userID, includeFish)
	return catchUp, report
}

// LastReport returns the most recent report, or nil if no pass has run.
func (s *Service) LastReport() *models.DailyCheckReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// UserStatus summarizes where the user stands today: how many habits are
// due, how many are done, and the completion rate.
func (s *Service) UserStatus(userID string) (models.StatusSummary, error) {
	today := s.clock.TodayString()

	habits, err := s.store.GetAllHabits(userID, false)
	if err != nil {
		return models.StatusSummary{}, fmt.Errorf("loading habits: %w", err)
	}

	due := 0
	for _, h := range habits {
		if h.IsActive && recurrence.IsExpectedOn(h, today) {
			due++
		}
	}

	completed, err := s.store.GetCompletedForDay(userID, today)
	if err != nil {
		return models.StatusSummary{}, fmt.Errorf("querying completions: %w", err)
	}

	summary := models.StatusSummary{
		Date:            today,
		TotalHabits:     due,
		CompletedHabits: len(completed),
		RemainingHabits: due - len(completed),
	}
	if due > 0 {
		summary.CompletionRate = int(math.Round(float64(len(completed)) / float64(due) * 100))
	}
	return summary, nil
}

// archivedPredicate builds the filter the vitality sweep uses to freeze
// fish of archived habits.
func (s *Service) archivedPredicate(userID string) (func(string) bool, error) {
	habits, err := s.store.GetAllHabits(userID, true)
	if err != nil {
		return nil, err
	}

	archived := make(map[string]bool, len(habits))
	for _, h := range habits {
		if h.IsArchived {
			archived[h.ID] = true
		}
	}
	return func(habitID string) bool { return archived[habitID] }, nil
}
