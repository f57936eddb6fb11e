package storage

import (
	"errors"

	"github.com/fishbit-app/fishbit/internal/models"
)

// ErrNotFound is returned by all providers when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// SettingsStore is the narrow key-value surface used for process settings,
// including the virtual clock's persisted offset.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	RemoveSetting(key string) error
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	SettingsStore

	// User profile
	SaveUser(models.User) error
	GetUser(id string) (models.User, error)
	UpdateUser(models.User) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitByName(userID, name string) (models.Habit, error)
	GetAllHabits(userID string, includeArchived bool) ([]models.Habit, error)
	UpdateHabit(models.Habit) error

	// Progress records, keyed by (habitID, date)
	AddProgress(models.Progress) error
	GetProgress(habitID, date string) (models.Progress, error)
	UpdateProgress(models.Progress) error
	GetCompletedForDay(userID, date string) ([]models.Progress, error)
	GetProgressForHabit(habitID string) ([]models.Progress, error)

	// Fish
	AddFish(models.Fish) error
	GetFish(id string) (models.Fish, error)
	GetFishByName(userID, name string) (models.Fish, error)
	GetAllFish(userID string) ([]models.Fish, error)
	GetFishByHabit(habitID string) ([]models.Fish, error)
	UpdateFish(models.Fish) error
	DeleteFish(id string) error

	// Utils
	GetConfigPath() string
}
