package constants

import "time"

// Frequency represents how often a habit recurs
type Frequency string

// DeathReason records why a fish died
type DeathReason string

const (
	AppName            = "fishbit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/fishbit/fishbit.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DefaultUserID identifies the single local profile created at init
	DefaultUserID = "local"

	// Frequency constants
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"

	// Points
	PointsPerCompletion = 10
	WeekStreakBonus     = 50  // awarded when a habit streak hits exactly 7
	MonthStreakBonus    = 200 // awarded when a habit streak hits exactly 30
	WeekStreakLength    = 7
	MonthStreakLength   = 30

	// Fish vitality
	HealthDecayPerDay = 5.0  // percentage points lost per full day unfed
	CriticalHealth    = 20.0 // at or below this (and above 0) a fish is critical
	MaxHealth         = 100.0

	DeathReasonStarvation DeathReason = "starvation"

	// Settings keys
	SettingTimeOffset = "time_offset_ms"
	SettingUserName   = "user_name"

	// Multi-day catch-up default window
	DefaultCatchUpDays = 7

	// Reminder scheduler
	DefaultReminderInterval = time.Hour
)
