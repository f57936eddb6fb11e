package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
)

// Document shapes as stored on disk. Timestamps use flexTime so documents
// written by other exporters (unix numbers, {"seconds": n} objects) are
// normalized here, before any model leaves the store.

type jsonUser struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CreatedAt     flexTime `json:"created_at"`
	TotalPoints   int      `json:"total_points"`
	CurrentStreak int      `json:"current_streak"`
	LongestStreak int      `json:"longest_streak"`
}

type jsonHabit struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	CreatedAt       flexTime `json:"created_at"`
	IsActive        bool     `json:"is_active"`
	IsArchived      bool     `json:"is_archived"`
	ArchivedAt      flexTime `json:"archived_at,omitempty"`
	Repeats         bool     `json:"repeats"`
	Frequency       string   `json:"frequency"`
	DaysOfWeek      []int    `json:"days_of_week,omitempty"`
	CustomInterval  int      `json:"custom_interval,omitempty"`
	CurrentStreak   int      `json:"current_streak"`
	BestStreak      int      `json:"best_streak"`
	CompletedCount  int      `json:"completed_count"`
	LastCompletedAt flexTime `json:"last_completed_at,omitempty"`
	LastStreakBreak flexTime `json:"last_streak_break,omitempty"`
}

type jsonProgress struct {
	HabitID      string   `json:"habit_id"`
	UserID       string   `json:"user_id"`
	Date         string   `json:"date"`
	Completed    bool     `json:"completed"`
	Timestamp    flexTime `json:"timestamp"`
	PointsEarned int      `json:"points_earned"`
}

type jsonFish struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	HabitID        string   `json:"habit_id"`
	Name           string   `json:"name"`
	Species        string   `json:"species"`
	CreatedAt      flexTime `json:"created_at"`
	IsAlive        bool     `json:"is_alive"`
	LastFedAt      flexTime `json:"last_fed_at,omitempty"`
	DeathDate      flexTime `json:"death_date,omitempty"`
	DeathReason    string   `json:"death_reason,omitempty"`
	RevivalPending bool     `json:"revival_pending"`
	RevivedAt      flexTime `json:"revived_at,omitempty"`
}

type jsonDocuments struct {
	Version  int                     `json:"version"`
	Settings map[string]string       `json:"settings"`
	Users    map[string]jsonUser     `json:"users"`
	Habits   map[string]jsonHabit    `json:"habits"`
	Progress map[string]jsonProgress `json:"progress"` // keyed habitID_date
	Fish     map[string]jsonFish     `json:"fish"`
}

type JSONStore struct {
	path string
	docs *jsonDocuments
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.docs = &jsonDocuments{
		Version:  1,
		Settings: make(map[string]string),
		Users:    make(map[string]jsonUser),
		Habits:   make(map[string]jsonHabit),
		Progress: make(map[string]jsonProgress),
		Fish:     make(map[string]jsonFish),
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	if s.docs != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'fishbit init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.docs = &jsonDocuments{}
	if err := json.Unmarshal(data, s.docs); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	// Ensure maps are initialized
	if s.docs.Settings == nil {
		s.docs.Settings = make(map[string]string)
	}
	if s.docs.Users == nil {
		s.docs.Users = make(map[string]jsonUser)
	}
	if s.docs.Habits == nil {
		s.docs.Habits = make(map[string]jsonHabit)
	}
	if s.docs.Progress == nil {
		s.docs.Progress = make(map[string]jsonProgress)
	}
	if s.docs.Fish == nil {
		s.docs.Fish = make(map[string]jsonFish)
	}

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}

// Settings

func (s *JSONStore) GetSetting(key string) (string, error) {
	value, ok := s.docs.Settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *JSONStore) SetSetting(key, value string) error {
	s.docs.Settings[key] = value
	return s.save()
}

func (s *JSONStore) RemoveSetting(key string) error {
	delete(s.docs.Settings, key)
	return s.save()
}

// Users

func (s *JSONStore) SaveUser(user models.User) error {
	s.docs.Users[user.ID] = userToDoc(user)
	return s.save()
}

func (s *JSONStore) GetUser(id string) (models.User, error) {
	doc, ok := s.docs.Users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return docToUser(doc), nil
}

func (s *JSONStore) UpdateUser(user models.User) error {
	if _, ok := s.docs.Users[user.ID]; !ok {
		return ErrNotFound
	}
	s.docs.Users[user.ID] = userToDoc(user)
	return s.save()
}

// Habits

func (s *JSONStore) AddHabit(habit models.Habit) error {
	s.docs.Habits[habit.ID] = habitToDoc(habit)
	return s.save()
}

func (s *JSONStore) GetHabit(id string) (models.Habit, error) {
	doc, ok := s.docs.Habits[id]
	if !ok {
		return models.Habit{}, ErrNotFound
	}
	return docToHabit(doc), nil
}

func (s *JSONStore) GetHabitByName(userID, name string) (models.Habit, error) {
	for _, doc := range s.docs.Habits {
		if doc.UserID == userID && doc.Name == name {
			return docToHabit(doc), nil
		}
	}
	return models.Habit{}, ErrNotFound
}

func (s *JSONStore) GetAllHabits(userID string, includeArchived bool) ([]models.Habit, error) {
	var habits []models.Habit
	for _, doc := range s.docs.Habits {
		if doc.UserID != userID {
			continue
		}
		if !includeArchived && doc.IsArchived {
			continue
		}
		habits = append(habits, docToHabit(doc))
	}
	sort.Slice(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (s *JSONStore) UpdateHabit(habit models.Habit) error {
	if _, ok := s.docs.Habits[habit.ID]; !ok {
		return ErrNotFound
	}
	s.docs.Habits[habit.ID] = habitToDoc(habit)
	return s.save()
}

// Progress

func (s *JSONStore) AddProgress(p models.Progress) error {
	key := models.ProgressKey(p.HabitID, p.Date)
	if _, ok := s.docs.Progress[key]; ok {
		return fmt.Errorf("progress record %s already exists", key)
	}
	s.docs.Progress[key] = progressToDoc(p)
	return s.save()
}

func (s *JSONStore) GetProgress(habitID, date string) (models.Progress, error) {
	doc, ok := s.docs.Progress[models.ProgressKey(habitID, date)]
	if !ok {
		return models.Progress{}, ErrNotFound
	}
	return docToProgress(doc), nil
}

func (s *JSONStore) UpdateProgress(p models.Progress) error {
	key := models.ProgressKey(p.HabitID, p.Date)
	if _, ok := s.docs.Progress[key]; !ok {
		return ErrNotFound
	}
	s.docs.Progress[key] = progressToDoc(p)
	return s.save()
}

func (s *JSONStore) GetCompletedForDay(userID, date string) ([]models.Progress, error) {
	var records []models.Progress
	for _, doc := range s.docs.Progress {
		if doc.UserID == userID && doc.Date == date && doc.Completed {
			records = append(records, docToProgress(doc))
		}
	}
	return records, nil
}

func (s *JSONStore) GetProgressForHabit(habitID string) ([]models.Progress, error) {
	var records []models.Progress
	for key, doc := range s.docs.Progress {
		if strings.HasPrefix(key, habitID+"_") {
			records = append(records, docToProgress(doc))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
	return records, nil
}

// Fish

func (s *JSONStore) AddFish(fish models.Fish) error {
	s.docs.Fish[fish.ID] = fishToDoc(fish)
	return s.save()
}

func (s *JSONStore) GetFish(id string) (models.Fish, error) {
	doc, ok := s.docs.Fish[id]
	if !ok {
		return models.Fish{}, ErrNotFound
	}
	return docToFish(doc), nil
}

func (s *JSONStore) GetFishByName(userID, name string) (models.Fish, error) {
	for _, doc := range s.docs.Fish {
		if doc.UserID == userID && doc.Name == name {
			return docToFish(doc), nil
		}
	}
	return models.Fish{}, ErrNotFound
}

func (s *JSONStore) GetAllFish(userID string) ([]models.Fish, error) {
	var fish []models.Fish
	for _, doc := range s.docs.Fish {
		if doc.UserID == userID {
			fish = append(fish, docToFish(doc))
		}
	}
	sort.Slice(fish, func(i, j int) bool {
		return fish[i].CreatedAt.Before(fish[j].CreatedAt)
	})
	return fish, nil
}

func (s *JSONStore) GetFishByHabit(habitID string) ([]models.Fish, error) {
	var fish []models.Fish
	for _, doc := range s.docs.Fish {
		if doc.HabitID == habitID {
			fish = append(fish, docToFish(doc))
		}
	}
	return fish, nil
}

func (s *JSONStore) UpdateFish(fish models.Fish) error {
	if _, ok := s.docs.Fish[fish.ID]; !ok {
		return ErrNotFound
	}
	s.docs.Fish[fish.ID] = fishToDoc(fish)
	return s.save()
}

func (s *JSONStore) DeleteFish(id string) error {
	delete(s.docs.Fish, id)
	return s.save()
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

// conversions

func userToDoc(u models.User) jsonUser {
	return jsonUser{
		ID:            u.ID,
		Name:          u.Name,
		CreatedAt:     flexTime{u.CreatedAt},
		TotalPoints:   u.TotalPoints,
		CurrentStreak: u.CurrentStreak,
		LongestStreak: u.LongestStreak,
	}
}

func docToUser(doc jsonUser) models.User {
	return models.User{
		ID:            doc.ID,
		Name:          doc.Name,
		CreatedAt:     doc.CreatedAt.Time,
		TotalPoints:   doc.TotalPoints,
		CurrentStreak: doc.CurrentStreak,
		LongestStreak: doc.LongestStreak,
	}
}

func habitToDoc(h models.Habit) jsonHabit {
	return jsonHabit{
		ID:              h.ID,
		UserID:          h.UserID,
		Name:            h.Name,
		Description:     h.Description,
		CreatedAt:       flexTime{h.CreatedAt},
		IsActive:        h.IsActive,
		IsArchived:      h.IsArchived,
		ArchivedAt:      flexFromPtr(h.ArchivedAt),
		Repeats:         h.Repeats,
		Frequency:       string(h.Frequency),
		DaysOfWeek:      h.DaysOfWeek,
		CustomInterval:  h.CustomInterval,
		CurrentStreak:   h.CurrentStreak,
		BestStreak:      h.BestStreak,
		CompletedCount:  h.CompletedCount,
		LastCompletedAt: flexFromPtr(h.LastCompletedAt),
		LastStreakBreak: flexFromPtr(h.LastStreakBreak),
	}
}

func docToHabit(doc jsonHabit) models.Habit {
	return models.Habit{
		ID:              doc.ID,
		UserID:          doc.UserID,
		Name:            doc.Name,
		Description:     doc.Description,
		CreatedAt:       doc.CreatedAt.Time,
		IsActive:        doc.IsActive,
		IsArchived:      doc.IsArchived,
		ArchivedAt:      doc.ArchivedAt.ptr(),
		Repeats:         doc.Repeats,
		Frequency:       constants.Frequency(doc.Frequency),
		DaysOfWeek:      doc.DaysOfWeek,
		CustomInterval:  doc.CustomInterval,
		CurrentStreak:   doc.CurrentStreak,
		BestStreak:      doc.BestStreak,
		CompletedCount:  doc.CompletedCount,
		LastCompletedAt: doc.LastCompletedAt.ptr(),
		LastStreakBreak: doc.LastStreakBreak.ptr(),
	}
}

func progressToDoc(p models.Progress) jsonProgress {
	return jsonProgress{
		HabitID:      p.HabitID,
		UserID:       p.UserID,
		Date:         p.Date,
		Completed:    p.Completed,
		Timestamp:    flexTime{p.Timestamp},
		PointsEarned: p.PointsEarned,
	}
}

func docToProgress(doc jsonProgress) models.Progress {
	return models.Progress{
		HabitID:      doc.HabitID,
		UserID:       doc.UserID,
		Date:         doc.Date,
		Completed:    doc.Completed,
		Timestamp:    doc.Timestamp.Time,
		PointsEarned: doc.PointsEarned,
	}
}

func fishToDoc(f models.Fish) jsonFish {
	return jsonFish{
		ID:             f.ID,
		UserID:         f.UserID,
		HabitID:        f.HabitID,
		Name:           f.Name,
		Species:        f.Species,
		CreatedAt:      flexTime{f.CreatedAt},
		IsAlive:        f.IsAlive,
		LastFedAt:      flexFromPtr(f.LastFedAt),
		DeathDate:      flexFromPtr(f.DeathDate),
		DeathReason:    string(f.DeathReason),
		RevivalPending: f.RevivalPending,
		RevivedAt:      flexFromPtr(f.RevivedAt),
	}
}

func docToFish(doc jsonFish) models.Fish {
	return models.Fish{
		ID:             doc.ID,
		UserID:         doc.UserID,
		HabitID:        doc.HabitID,
		Name:           doc.Name,
		Species:        doc.Species,
		CreatedAt:      doc.CreatedAt.Time,
		IsAlive:        doc.IsAlive,
		LastFedAt:      doc.LastFedAt.ptr(),
		DeathDate:      doc.DeathDate.ptr(),
		DeathReason:    constants.DeathReason(doc.DeathReason),
		RevivalPending: doc.RevivalPending,
		RevivedAt:      doc.RevivedAt.ptr(),
	}
}
