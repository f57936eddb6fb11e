// Package vitality computes fish health from elapsed time since feeding and
// applies death, feeding and revival transitions. Health is never stored;
// it is derived from LastFedAt on every read.
package vitality

import (
	"errors"
	"fmt"
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/logger"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/timeclock"
)

// ErrFishDead is returned when feeding a fish that has died. Dead fish must
// be revived first.
var ErrFishDead = errors.New("fish is dead and cannot be fed")

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

// SweepResult summarizes a bulk health check.
type SweepResult struct {
	Checked  int
	Critical []models.Fish
	Deaths   []models.FishDeath
	Revived  []models.Fish
}

// ComputeHealth returns the health percentage at the given instant. A fish
// that has never been fed is at full health. Health drops five percentage
// points per full day unfed, reaching zero after exactly twenty days.
func ComputeHealth(lastFedAt *time.Time, now time.Time) float64 {
	if lastFedAt == nil {
		return constants.MaxHealth
	}

	hoursSinceFeeding := now.Sub(*lastFedAt).Hours()
	decay := hoursSinceFeeding / 24 * constants.HealthDecayPerDay
	health := constants.MaxHealth - decay

	if health < 0 {
		return 0
	}
	if health > constants.MaxHealth {
		return constants.MaxHealth
	}
	return health
}

// IsCritical reports whether a health value is in the critical band: above
// zero but at or below the critical threshold.
func IsCritical(health float64) bool {
	return health > 0 && health <= constants.CriticalHealth
}

// Health returns the fish's health at the current virtual time.
func (e *Engine) Health(fish models.Fish) float64 {
	return ComputeHealth(fish.LastFedAt, e.clock.Now())
}

// CheckFish computes health and, if the fish is alive at zero health,
// transitions it to dead. Death is terminal; only revival undoes it.
// Returns whether the fish died during this check.
func (e *Engine) CheckFish(fish models.Fish) (bool, error) {
	health := e.Health(fish)

	if fish.IsAlive && health <= 0 {
		now := e.clock.Now()
		fish.IsAlive = false
		fish.DeathDate = &now
		fish.DeathReason = constants.DeathReasonStarvation

		if err := e.store.UpdateFish(fish); err != nil {
			return false, fmt.Errorf("marking fish %s dead: %w", fish.ID, err)
		}
		logger.Warn("fish died of starvation", "fish", fish.Name)
		return true, nil
	}

	if IsCritical(health) {
		logger.Warn("fish in critical condition", "fish", fish.Name, "health", health)
	}
	return false, nil
}

// Sweep runs a health check over all of the user's living fish, skipping
// any whose owning habit the archived predicate reports as archived — their
// decay clock is frozen. Pending revivals are processed first so a revived
// fish is not immediately re-killed.
func (e *Engine) Sweep(userID string, archived func(habitID string) bool) (SweepResult, error) {
	result := SweepResult{}

	revived, err := e.ProcessPendingRevivals(userID)
	if err != nil {
		return result, err
	}
	result.Revived = revived

	fish, err := e.store.GetAllFish(userID)
	if err != nil {
		return result, fmt.Errorf("loading fish: %w", err)
	}

	for _, f := range fish {
		if !f.IsAlive {
			continue
		}
		if archived != nil && archived(f.HabitID) {
			logger.Debug("skipping fish with archived habit", "fish", f.Name)
			continue
		}
		result.Checked++

		died, err := e.CheckFish(f)
		if err != nil {
			return result, err
		}
		if died {
			result.Deaths = append(result.Deaths, models.FishDeath{
				FishID:   f.ID,
				FishName: f.Name,
				HabitID:  f.HabitID,
			})
			continue
		}
		if IsCritical(e.Health(f)) {
			result.Critical = append(result.Critical, f)
		}
	}

	return result, nil
}

// Feed stamps the fish as fed now, restoring it to full health. Feeding is
// the only operation that raises health, and it always restores it fully.
func (e *Engine) Feed(fishID string) error {
	fish, err := e.store.GetFish(fishID)
	if err != nil {
		return fmt.Errorf("loading fish: %w", err)
	}
	if !fish.IsAlive {
		return ErrFishDead
	}

	now := e.clock.Now()
	fish.LastFedAt = &now

	if err := e.store.UpdateFish(fish); err != nil {
		return fmt.Errorf("feeding fish %s: %w", fishID, err)
	}
	logger.Debug("fish fed", "fish", fish.Name)
	return nil
}

// Revive brings a dead fish back, clears the death record and any pending
// revival marker, and feeds it so it starts at full health. Gating (such as
// consuming a revival item) is the caller's concern.
func (e *Engine) Revive(fishID string) error {
	fish, err := e.store.GetFish(fishID)
	if err != nil {
		return fmt.Errorf("loading fish: %w", err)
	}

	now := e.clock.Now()
	fish.IsAlive = true
	fish.LastFedAt = &now
	fish.DeathDate = nil
	fish.DeathReason = ""
	fish.RevivalPending = false
	fish.RevivedAt = &now

	if err := e.store.UpdateFish(fish); err != nil {
		return fmt.Errorf("reviving fish %s: %w", fishID, err)
	}
	logger.Info("fish revived", "fish", fish.Name)
	return nil
}

// ProcessPendingRevivals revives every dead fish flagged for revival.
func (e *Engine) ProcessPendingRevivals(userID string) ([]models.Fish, error) {
	fish, err := e.store.GetAllFish(userID)
	if err != nil {
		return nil, fmt.Errorf("loading fish: %w", err)
	}

	var revived []models.Fish
	for _, f := range fish {
		if !f.RevivalPending || f.IsAlive {
			continue
		}
		if err := e.Revive(f.ID); err != nil {
			return revived, err
		}
		revived = append(revived, f)
	}
	return revived, nil
}
