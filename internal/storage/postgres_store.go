package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrInvalidConnectionString is returned for malformed PostgreSQL connection strings
	ErrInvalidConnectionString = errors.New("invalid connection string")
	// ErrEmbeddedCredentials is returned when a connection string carries a password
	ErrEmbeddedCredentials = errors.New("connection string must not contain a password")
)

type PostgresStore struct {
	connStr string
	db      *sql.DB
}

func NewPostgresStore(connStr string) *PostgresStore {
	return &PostgresStore{
		connStr: connStr,
	}
}

// Timestamps are stored as RFC3339 TEXT, matching the SQLite provider, so
// both backends share the same scan path.
const postgresSchema = `
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
	is_active         BOOLEAN NOT NULL DEFAULT TRUE,
	is_archived       BOOLEAN NOT NULL DEFAULT FALSE,
	archived_at       TEXT,
	repeats           BOOLEAN NOT NULL DEFAULT TRUE,
	frequency         TEXT NOT NULL,
	days_of_week      TEXT,
	custom_interval   INTEGER NOT NULL DEFAULT 0,
	current_streak    INTEGER NOT NULL DEFAULT 0,
	best_streak       INTEGER NOT NULL DEFAULT 0,
	completed_count   INTEGER NOT NULL DEFAULT 0,
	last_completed_at TEXT,
	last_streak_break TEXT,
	UNIQUE (user_id, name)
);
CREATE TABLE IF NOT EXISTS progress (
	habit_id      TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	date          TEXT NOT NULL,
	completed     BOOLEAN NOT NULL DEFAULT FALSE,
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
	is_alive        BOOLEAN NOT NULL DEFAULT TRUE,
	last_fed_at     TEXT,
	death_date      TEXT,
	death_reason    TEXT,
	revival_pending BOOLEAN NOT NULL DEFAULT FALSE,
	revived_at      TEXT
);
CREATE INDEX IF NOT EXISTS idx_fish_user ON fish(user_id);
`

// HasEmbeddedCredentials reports whether a PostgreSQL connection string
// carries an inline password. Such strings are rejected at startup; use the
// OS keyring, environment, or .pgpass instead.
func HasEmbeddedCredentials(connStr string) bool {
	_, err := ValidateConnString(connStr)
	return errors.Is(err, ErrEmbeddedCredentials)
}

// ValidateConnString checks that a connection string is a valid PostgreSQL
// connection string (URI or DSN form) and that it carries no password.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		parsedURL, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := parsedURL.User.Password(); isSet {
			return false, ErrEmbeddedCredentials
		}
	} else {
		for _, pair := range strings.Fields(connStr) {
			parts := strings.SplitN(pair, "=", 2)
			if len(parts) == 2 && strings.ToLower(strings.TrimSpace(parts[0])) == "password" {
				return false, ErrEmbeddedCredentials
			}
		}
	}

	return true, nil
}

func (s *PostgresStore) Init() error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := s.db.Exec(postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (s *PostgresStore) Load() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Settings

func (s *PostgresStore) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *PostgresStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}

func (s *PostgresStore) RemoveSetting(key string) error {
	_, err := s.db.Exec("DELETE FROM settings WHERE key = $1", key)
	return err
}

// Users

func (s *PostgresStore) SaveUser(user models.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, created_at, total_points, current_streak, longest_streak)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, total_points = EXCLUDED.total_points,
			current_streak = EXCLUDED.current_streak, longest_streak = EXCLUDED.longest_streak`,
		user.ID, user.Name, user.CreatedAt.Format(time.RFC3339),
		user.TotalPoints, user.CurrentStreak, user.LongestStreak)
	return err
}

func (s *PostgresStore) GetUser(id string) (models.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, created_at, total_points, current_streak, longest_streak
		FROM users WHERE id = $1`, id)

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

func (s *PostgresStore) UpdateUser(user models.User) error {
	res, err := s.db.Exec(`
		UPDATE users SET name = $1, total_points = $2, current_streak = $3, longest_streak = $4
		WHERE id = $5`,
		user.Name, user.TotalPoints, user.CurrentStreak, user.LongestStreak, user.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// Habits

func (s *PostgresStore) AddHabit(habit models.Habit) error {
	days, err := marshalDays(habit.DaysOfWeek)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO habits (`+habitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		habit.ID, habit.UserID, habit.Name, habit.Description,
		habit.CreatedAt.Format(time.RFC3339), habit.IsActive, habit.IsArchived,
		formatNullTime(habit.ArchivedAt), habit.Repeats, string(habit.Frequency), days,
		habit.CustomInterval, habit.CurrentStreak, habit.BestStreak, habit.CompletedCount,
		formatNullTime(habit.LastCompletedAt), formatNullTime(habit.LastStreakBreak))
	return err
}

func (s *PostgresStore) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE id = $1`, id)
	return scanHabit(row)
}

func (s *PostgresStore) GetHabitByName(userID, name string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitColumns+` FROM habits WHERE user_id = $1 AND name = $2`, userID, name)
	return scanHabit(row)
}

func (s *PostgresStore) GetAllHabits(userID string, includeArchived bool) ([]models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1`
	if !includeArchived {
		query += " AND NOT is_archived"
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

func (s *PostgresStore) UpdateHabit(habit models.Habit) error {
	days, err := marshalDays(habit.DaysOfWeek)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE habits SET name = $1, description = $2, is_active = $3, is_archived = $4,
			archived_at = $5, repeats = $6, frequency = $7, days_of_week = $8, custom_interval = $9,
			current_streak = $10, best_streak = $11, completed_count = $12,
			last_completed_at = $13, last_streak_break = $14
		WHERE id = $15`,
		habit.Name, habit.Description, habit.IsActive, habit.IsArchived,
		formatNullTime(habit.ArchivedAt), habit.Repeats, string(habit.Frequency), days,
		habit.CustomInterval, habit.CurrentStreak, habit.BestStreak, habit.CompletedCount,
		formatNullTime(habit.LastCompletedAt), formatNullTime(habit.LastStreakBreak), habit.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// Progress

func (s *PostgresStore) AddProgress(p models.Progress) error {
	_, err := s.db.Exec(`
		INSERT INTO progress (habit_id, user_id, date, completed, timestamp, points_earned)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.HabitID, p.UserID, p.Date, p.Completed, p.Timestamp.Format(time.RFC3339), p.PointsEarned)
	return err
}

func (s *PostgresStore) GetProgress(habitID, date string) (models.Progress, error) {
	row := s.db.QueryRow(`
		SELECT habit_id, user_id, date, completed, timestamp, points_earned
		FROM progress WHERE habit_id = $1 AND date = $2`, habitID, date)
	return scanProgress(row)
}

func (s *PostgresStore) UpdateProgress(p models.Progress) error {
	res, err := s.db.Exec(`
		UPDATE progress SET completed = $1, timestamp = $2, points_earned = $3
		WHERE habit_id = $4 AND date = $5`,
		p.Completed, p.Timestamp.Format(time.RFC3339), p.PointsEarned, p.HabitID, p.Date)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *PostgresStore) GetCompletedForDay(userID, date string) ([]models.Progress, error) {
	return s.queryProgress(`
		SELECT habit_id, user_id, date, completed, timestamp, points_earned
		FROM progress WHERE user_id = $1 AND date = $2 AND completed`, userID, date)
}

func (s *PostgresStore) GetProgressForHabit(habitID string) ([]models.Progress, error) {
	return s.queryProgress(`
		SELECT habit_id, user_id, date, completed, timestamp, points_earned
		FROM progress WHERE habit_id = $1 ORDER BY date`, habitID)
}

func (s *PostgresStore) queryProgress(query string, args ...any) ([]models.Progress, error) {
	rows, err := s.db.Query(query, args...)
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

func (s *PostgresStore) AddFish(fish models.Fish) error {
	_, err := s.db.Exec(`
		INSERT INTO fish (`+fishColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		fish.ID, fish.UserID, fish.HabitID, fish.Name, fish.Species,
		fish.CreatedAt.Format(time.RFC3339), fish.IsAlive,
		formatNullTime(fish.LastFedAt), formatNullTime(fish.DeathDate),
		nullString(string(fish.DeathReason)), fish.RevivalPending,
		formatNullTime(fish.RevivedAt))
	return err
}

func (s *PostgresStore) GetFish(id string) (models.Fish, error) {
	row := s.db.QueryRow(`SELECT `+fishColumns+` FROM fish WHERE id = $1`, id)
	return scanFish(row)
}

func (s *PostgresStore) GetFishByName(userID, name string) (models.Fish, error) {
	row := s.db.QueryRow(`SELECT `+fishColumns+` FROM fish WHERE user_id = $1 AND name = $2`, userID, name)
	return scanFish(row)
}

func (s *PostgresStore) GetAllFish(userID string) ([]models.Fish, error) {
	return s.queryFishRows(`SELECT `+fishColumns+` FROM fish WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *PostgresStore) GetFishByHabit(habitID string) ([]models.Fish, error) {
	return s.queryFishRows(`SELECT `+fishColumns+` FROM fish WHERE habit_id = $1`, habitID)
}

func (s *PostgresStore) queryFishRows(query string, args ...any) ([]models.Fish, error) {
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

func (s *PostgresStore) UpdateFish(fish models.Fish) error {
	res, err := s.db.Exec(`
		UPDATE fish SET name = $1, species = $2, is_alive = $3, last_fed_at = $4,
			death_date = $5, death_reason = $6, revival_pending = $7, revived_at = $8
		WHERE id = $9`,
		fish.Name, fish.Species, fish.IsAlive, formatNullTime(fish.LastFedAt),
		formatNullTime(fish.DeathDate), nullString(string(fish.DeathReason)),
		fish.RevivalPending, formatNullTime(fish.RevivedAt), fish.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *PostgresStore) DeleteFish(id string) error {
	_, err := s.db.Exec("DELETE FROM fish WHERE id = $1", id)
	return err
}

func (s *PostgresStore) GetConfigPath() string {
	return s.connStr
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
