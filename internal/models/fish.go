package models

import (
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
)

// Fish is a virtual pet linked to exactly one habit. Its health is derived
// from LastFedAt and never stored; only feeding, death and revival mutate it.
type Fish struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	HabitID        string               `json:"habit_id"`
	Name           string               `json:"name"`
	Species        string               `json:"species"`
	CreatedAt      time.Time            `json:"created_at"`
	IsAlive        bool                 `json:"is_alive"`
	LastFedAt      *time.Time           `json:"last_fed_at,omitempty"`
	DeathDate      *time.Time           `json:"death_date,omitempty"`
	DeathReason    constants.DeathReason `json:"death_reason,omitempty"`
	RevivalPending bool                 `json:"revival_pending"`
	RevivedAt      *time.Time           `json:"revived_at,omitempty"`
}

// Species available for new fish. One is picked at random when a habit
// is created.
var FishSpecies = []string{
	"clownfish",
	"blue-tang",
	"yellow-tang",
	"angelfish",
	"neon-tetra",
	"goldfish",
	"betta",
	"guppy",
}

// Age returns the fish's age in whole days at the given time.
func (f Fish) Age(now time.Time) int {
	if now.Before(f.CreatedAt) {
		return 0
	}
	return int(now.Sub(f.CreatedAt).Hours() / 24)
}
