// Package reminder surfaces habits that are due today but not yet
// completed, and runs an optional in-process ticker that re-evaluates
// eligibility on an interval.
package reminder

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fishbit-app/fishbit/internal/logger"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/recurrence"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/timeclock"
)

type Service struct {
	store storage.Provider
	clock *timeclock.Clock
}

func New(store storage.Provider, clock *timeclock.Clock) *Service {
	return &Service{store: store, clock: clock}
}

// EligibleToday returns the active, non-archived habits expected today
// that have no completion record yet.
func (s *Service) EligibleToday(userID string) ([]models.Habit, error) {
	today := s.clock.TodayString()

	habits, err := s.store.GetAllHabits(userID, false)
	if err != nil {
		return nil, fmt.Errorf("loading habits: %w", err)
	}

	completed, err := s.store.GetCompletedForDay(userID, today)
	if err != nil {
		return nil, fmt.Errorf("querying completions: %w", err)
	}
	done := make(map[string]bool, len(completed))
	for _, p := range completed {
		done[p.HabitID] = true
	}

	var due []models.Habit
	for _, h := range habits {
		if !h.IsActive || h.IsArchived {
			continue
		}
		if done[h.ID] {
			continue
		}
		if recurrence.IsExpectedOn(h, today) {
			due = append(due, h)
		}
	}
	return due, nil
}

// Scheduler periodically re-evaluates reminder eligibility and invokes a
// callback with the habits still due. Start is a no-op after the first
// call for the lifetime of the process.
type Scheduler struct {
	service  *Service
	userID   string
	interval time.Duration
	started  atomic.Bool
}

func NewScheduler(service *Service, userID string, interval time.Duration) *Scheduler {
	return &Scheduler{service: service, userID: userID, interval: interval}
}

// Start runs the evaluation loop until ctx is cancelled. Only the first
// call starts a loop; later calls return immediately.
func (s *Scheduler) Start(ctx context.Context, notify func([]models.Habit)) {
	if !s.started.CompareAndSwap(false, true) {
		logger.Debug("reminder scheduler already running")
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				due, err := s.service.EligibleToday(s.userID)
				if err != nil {
					logger.Error("reminder evaluation failed", "err", err)
					continue
				}
				if len(due) > 0 {
					notify(due)
				}
			}
		}
	}()
}
