package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	total_points   INTEGER NOT NULL DEFAULT 0,
	current_streak INTEGER NOT NULL DEFAULT 0,
	longest_streak INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS habits (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	name              TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL,
	is_active         INTEGER NOT NULL DEFAULT 1,
	is_archived       INTEGER NOT NULL DEFAULT 0,
	archived_at       TEXT,
	repeats           INTEGER NOT NULL DEFAULT 1,
	frequency         TEXT NOT NULL,
	days_of_week      TEXT,
	custom_interval   INTEGER NOT NULL DEFAULT 0,
	current_streak    INTEGER NOT NULL DEFAULT 0,
	best_streak       INTEGER NOT NULL DEFAULT 0,
	completed_count   INTEGER NOT NULL DEFAULT 0,
	last_completed_at TEXT,
	last_streak_break TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_habits_user_name ON habits(user_id, name);
CREATE TABLE IF NOT EXISTS progress (
	habit_id      TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	date          TEXT NOT NULL,
	completed     INTEGER NOT NULL DEFAULT 0,
	timestamp     TEXT NOT NULL,
	points_earned INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (habit_id, date)
);
CREATE INDEX IF NOT EXISTS idx_progress_user_date ON progress(user_id, date);
CREATE TABLE IF NOT EXISTS fish (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	habit_id        TEXT NOT NULL,
	name            TEXT NOT NULL,
	species         TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	is_alive        INTEGER NOT NULL DEFAULT 1,
	last_fed_at     TEXT,
	death_date      TEXT,
	death_reason    TEXT,
	revival_pending INTEGER NOT NULL DEFAULT 0,
	revived_at      TEXT
);
CREATE INDEX IF NOT EXISTS idx_fish_user ON fish(user_id);
`

func (s *SQLiteStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'fishbit init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Settings

func (s *SQLiteStore) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	return err
}

func (s *SQLiteStore) RemoveSetting(key string) error {
	_, err := s.db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

// Users

func (s *SQLiteStore) SaveUser(user models.User) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO users (id, name, created_at, total_points, current_streak, longest_streak)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.CreatedAt.Format(time.RFC3339),
		user.TotalPoints, user.CurrentStreak, user.LongestStreak)
	return err
}

func (s *SQLiteStore) GetUser(id string) (models.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, created_at, total_points, current_streak, longest_streak
		FROM users WHERE id = ?`, id)

	var u models.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Name, &createdAt, &u.TotalPoints, &u.CurrentStreak, &u.LongestStreak)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}

	u.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) UpdateUser(user models.User) error {
	res, err := s.db.Exec(`
		UPDATE users SET name = ?, total_points = ?, current_streak = ?, longest_streak = ?
		WHERE id = ?`,
		user.Name, user.TotalPoints, user.CurrentStreak, user.LongestStreak, user.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Habits

const habitColumns = `id, user_id, name, description, created_at, is_active, is_archived, archived_at,
	repeats, frequency, days_of_week, custom_interval, current_streak, best_streak,
	completed_count, last_completed_at, last_streak_break`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var createdAt string
	var frequency string
	var archivedAt, daysOfWeek, lastCompleted, lastBreak sql.NullString

	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &createdAt, &h.IsActive,
		&h.IsArchived, &archivedAt, &h.Repeats, &frequency, &daysOfWeek, &h.CustomInterval,
		&h.CurrentStreak, &h.BestStreak, &h.CompletedCount, &lastCompleted, &lastBreak)
	if err == sql.ErrNoRows {
		return models.Habit{}, ErrNotFound
	}
	if err != nil {
		return models.Habit{}, err
	}

	h.Frequency = constants.Frequency(frequency)
	h.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if h.ArchivedAt, err = parseNullTime(archivedAt, "archived_at"); err != nil {
		return models.Habit{}, err
	}
	if h.LastCompletedAt, err = parseNullTime(lastCompleted, "last_completed_at"); err != nil {
		return models.Habit{}, err
	}
	if h.LastStreakBreak, err = parseNullTime(lastBreak, "last_streak_break"); err != nil {
		return models.Habit{}, err
	}
	if daysOfWeek.Valid && daysOfWeek.String != "" {
		if err := json.Unmarshal([]byte(daysOfWeek.String), &h.DaysOfWeek); err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse days_of_week: %w", err)
		}
	}

	return h, nil
}

func (s *SQLiteStore) AddHabit(habit models.Habit) error {
	days, err := marshalDays(habit.DaysOfWeek)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.UserID, habit.Name, habit.Description,
		habit.CreatedAt.Format(time.RFC3339), habit.IsActive, habit.IsArchived,
		formatNullTime(habit.ArchivedAt), habit.Repeats, string(habit.Frequency), days,
		habit.CustomInterval, habit.CurrentStreak, habit.BestStreak, habit.CompletedCount,
		formatNullTime(habit.LastCompletedAt), formatNullTime(habit.LastStreakBreak))
	return err
}

func (s *SQLiteStore) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	return scanHabit(row)
}

func (s *SQLiteStore) GetHabitByName(userID, name string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE user_id = ? AND name = ?`, userID, name)
	return scanHabit(row)
}

func (s *SQLiteStore) GetAllHabits(userID string, includeArchived bool) ([]models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = ?`
	if !includeArchived {
		query += " AND is_archived = 0"
	}
	query += " ORDER BY created_at"

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *SQLiteStore) UpdateHabit(habit models.Habit) error {
	days, err := marshalDays(habit.DaysOfWeek)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE habits SET name = ?, description = ?, is_active = ?, is_archived = ?,
			archived_at = ?, repeats = ?, frequency = ?, days_of_week = ?, custom_interval = ?,
			current_streak = ?, best_streak = ?, completed_count = ?,
			last_completed_at = ?, last_streak_break = ?
		WHERE id = ?`,
		habit.Name, habit.Description, habit.IsActive, habit.IsArchived,
		formatNullTime(habit.ArchivedAt), habit.Repeats, string(habit.Frequency), days,
		habit.CustomInterval, habit.CurrentStreak, habit.BestStreak, habit.CompletedCount,
		formatNullTime(habit.LastCompletedAt), formatNullTime(habit.LastStreakBreak), habit.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Progress

func (s *SQLiteStore) AddProgress(p models.Progress) error {
	_, err := s.db.Exec(`
		INSERT INTO progress (habit_id, user_id, date, completed, timestamp, points_earned)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.HabitID, p.UserID, p.Date, p.Completed, p.Timestamp.Format(time.RFC3339), p.PointsEarned)
	return err
}

func scanProgress(row rowScanner) (models.Progress, error) {
	var p models.Progress
	var ts string
	err := row.Scan(&p.HabitID, &p.UserID, &p.Date, &p.Completed, &ts, &p.PointsEarned)
	if err == sql.ErrNoRows {
		return models.Progress{}, ErrNotFound
	}
	if err != nil {
		return models.Progress{}, err
	}
	p.Timestamp, err = time.Parse(time.RFC3339, ts)
	if err != nil {
		return models.Progress{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetProgress(habitID, date string) (models.Progress, error) {
	row := s.db.QueryRow(`
		SELECT habit_id, user_id, date, completed, timestamp, points_earned
		FROM progress WHERE habit_id = ? AND date = ?`, habitID, date)
	return scanProgress(row)
}

func (s *SQLiteStore) UpdateProgress(p models.Progress) error {
	res, err := s.db.Exec(`
		UPDATE progress SET completed = ?, timestamp = ?, points_earned = ?
		WHERE habit_id = ? AND date = ?`,
		p.Completed, p.Timestamp.Format(time.RFC3339), p.PointsEarned, p.HabitID, p.Date)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetCompletedForDay(userID, date string) ([]models.Progress, error) {
	rows, err := s.db.Query(`
		SELECT habit_id, user_id, date, completed, timestamp, points_earned
		FROM progress WHERE user_id = ? AND date = ? AND completed = 1`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) GetProgressForHabit(habitID string) ([]models.Progress, error) {
	rows, err := s.db.Query(`
		SELECT habit_id, user_id, date, completed, timestamp, points_earned
		FROM progress WHERE habit_id = ? ORDER BY date`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// Fish

const fishColumns = `id, user_id, habit_id, name, species, created_at, is_alive,
	last_fed_at, death_date, death_reason, revival_pending, revived_at`

func scanFish(row rowScanner) (models.Fish, error) {
	var f models.Fish
	var createdAt string
	var lastFed, deathDate, deathReason, revivedAt sql.NullString

	err := row.Scan(&f.ID, &f.UserID, &f.HabitID, &f.Name, &f.Species, &createdAt,
		&f.IsAlive, &lastFed, &deathDate, &deathReason, &f.RevivalPending, &revivedAt)
	if err == sql.ErrNoRows {
		return models.Fish{}, ErrNotFound
	}
	if err != nil {
		return models.Fish{}, err
	}

	f.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Fish{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if f.LastFedAt, err = parseNullTime(lastFed, "last_fed_at"); err != nil {
		return models.Fish{}, err
	}
	if f.DeathDate, err = parseNullTime(deathDate, "death_date"); err != nil {
		return models.Fish{}, err
	}
	if f.RevivedAt, err = parseNullTime(revivedAt, "revived_at"); err != nil {
		return models.Fish{}, err
	}
	if deathReason.Valid {
		f.DeathReason = constants.DeathReason(deathReason.String)
	}
	return f, nil
}

func (s *SQLiteStore) AddFish(fish models.Fish) error {
	_, err := s.db.Exec(`
		INSERT INTO fish (`+fishColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fish.ID, fish.UserID, fish.HabitID, fish.Name, fish.Species,
		fish.CreatedAt.Format(time.RFC3339), fish.IsAlive,
		formatNullTime(fish.LastFedAt), formatNullTime(fish.DeathDate),
		nullString(string(fish.DeathReason)), fish.RevivalPending,
		formatNullTime(fish.RevivedAt))
	return err
}

func (s *SQLiteStore) GetFish(id string) (models.Fish, error) {
	row := s.db.QueryRow(`SELECT `+fishColumns+` FROM fish WHERE id = ?`, id)
	return scanFish(row)
}

func (s *SQLiteStore) GetFishByName(userID, name string) (models.Fish, error) {
	row := s.db.QueryRow(`SELECT `+fishColumns+` FROM fish WHERE user_id = ? AND name = ?`, userID, name)
	return scanFish(row)
}

func (s *SQLiteStore) GetAllFish(userID string) ([]models.Fish, error) {
	return s.queryFish(`SELECT `+fishColumns+` FROM fish WHERE user_id = ? ORDER BY created_at`, userID)
}

func (s *SQLiteStore) GetFishByHabit(habitID string) ([]models.Fish, error) {
	return s.queryFish(`SELECT `+fishColumns+` FROM fish WHERE habit_id = ?`, habitID)
}

func (s *SQLiteStore) queryFish(query string, args ...any) ([]models.Fish, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fish []models.Fish
	for rows.Next() {
		f, err := scanFish(rows)
		if err != nil {
			return nil, err
		}
		fish = append(fish, f)
	}
	return fish, rows.Err()
}

func (s *SQLiteStore) UpdateFish(fish models.Fish) error {
	res, err := s.db.Exec(`
		UPDATE fish SET name = ?, species = ?, is_alive = ?, last_fed_at = ?,
			death_date = ?, death_reason = ?, revival_pending = ?, revived_at = ?
		WHERE id = ?`,
		fish.Name, fish.Species, fish.IsAlive, formatNullTime(fish.LastFedAt),
		formatNullTime(fish.DeathDate), nullString(string(fish.DeathReason)),
		fish.RevivalPending, formatNullTime(fish.RevivedAt), fish.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteFish(id string) error {
	_, err := s.db.Exec("DELETE FROM fish WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

// helpers

func parseNullTime(v sql.NullString, field string) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return &t, nil
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func marshalDays(days []int) (any, error) {
	if len(days) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize days_of_week: %w", err)
	}
	return string(b), nil
}
