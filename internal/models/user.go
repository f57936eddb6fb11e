package models

import "time"

// User is the local profile. CurrentStreak counts consecutive days on which
// at least one habit was completed; it is independent of any single habit's
// streak. LongestStreak only ratchets upward.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	TotalPoints   int       `json:"total_points"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
}
