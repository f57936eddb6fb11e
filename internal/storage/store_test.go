package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
)

// providerFactories builds each store implementation against a temp dir so
// the Provider contract tests run against all backends that need no server.
var providerFactories = map[string]func(t *testing.T) Provider{
	"sqlite": func(t *testing.T) Provider {
		return NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	},
	"json": func(t *testing.T) Provider {
		return NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	},
}

func setupStore(t *testing.T, factory func(t *testing.T) Provider) Provider {
	t.Helper()
	store := factory(t)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func forEachProvider(t *testing.T, test func(t *testing.T, store Provider)) {
	for name, factory := range providerFactories {
		t.Run(name, func(t *testing.T) {
			test(t, setupStore(t, factory))
		})
	}
}

func TestLoadWithoutInit(t *testing.T) {
	for name, factory := range providerFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			if err := store.Load(); err == nil {
				t.Error("Load() on uninitialized storage succeeded, want error")
			}
		})
	}
}

func TestSettings(t *testing.T) {
	forEachProvider(t, func(t *testing.T, store Provider) {
		if _, err := store.GetSetting("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetSetting(missing) error = %v, want ErrNotFound", err)
		}

		if err := store.SetSetting(constants.SettingTimeOffset, "3600000"); err != nil {
			t.Fatalf("SetSetting() error: %v", err)
		}
		got, err := store.GetSetting(constants.SettingTimeOffset)
		if err != nil || got != "3600000" {
			t.Errorf("GetSetting() = %q, %v, want 3600000", got, err)
		}

		// Overwrite.
		if err := store.SetSetting(constants.SettingTimeOffset, "0"); err != nil {
			t.Fatalf("SetSetting() overwrite error: %v", err)
		}
		got, _ = store.GetSetting(constants.SettingTimeOffset)
		if got != "0" {
			t.Errorf("GetSetting() after overwrite = %q, want 0", got)
		}

		if err := store.RemoveSetting(constants.SettingTimeOffset); err != nil {
			t.Fatalf("RemoveSetting() error: %v", err)
		}
		if _, err := store.GetSetting(constants.SettingTimeOffset); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetSetting() after remove error = %v, want ErrNotFound", err)
		}
	})
}

func TestUserRoundTrip(t *testing.T) {
	forEachProvider(t, func(t *testing.T, store Provider) {
		user := models.User{
			ID:            "local",
			Name:          "Sam",
			CreatedAt:     time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			TotalPoints:   120,
			CurrentStreak: 4,
			LongestStreak: 9,
		}
		if err := store.SaveUser(user); err != nil {
			t.Fatalf("SaveUser() error: %v", err)
		}

		got, err := store.GetUser("local")
		if err != nil {
			t.Fatalf("GetUser() error: %v", err)
		}
		if got.Name != user.Name || got.TotalPoints != 120 || got.LongestStreak != 9 {
			t.Errorf("GetUser() = %+v, want %+v", got, user)
		}
		if !got.CreatedAt.Equal(user.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, user.CreatedAt)
		}

		got.TotalPoints = 200
		if err := store.UpdateUser(got); err != nil {
			t.Fatalf("UpdateUser() error: %v", err)
		}
		got, _ = store.GetUser("local")
		if got.TotalPoints != 200 {
			t.Errorf("TotalPoints after update = %d, want 200", got.TotalPoints)
		}

		if _, err := store.GetUser("nobody"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUser(nobody) error = %v, want ErrNotFound", err)
		}
	})
}

func TestHabitRoundTrip(t *testing.T) {
	forEachProvider(t, func(t *testing.T, store Provider) {
		created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		lastDone := created.AddDate(0, 0, 5)
		habit := models.Habit{
			ID:              "h1",
			UserID:          "local",
			Name:            "read",
			Description:     "20 pages",
			CreatedAt:       created,
			IsActive:        true,
			Repeats:         true,
			Frequency:       constants.FrequencyWeekly,
			DaysOfWeek:      []int{1, 3, 5},
			CurrentStreak:   3,
			BestStreak:      6,
			CompletedCount:  14,
			LastCompletedAt: &lastDone,
		}
		if err := store.AddHabit(habit); err != nil {
			t.Fatalf("AddHabit() error: %v", err)
		}

		got, err := store.GetHabit("h1")
		if err != nil {
			t.Fatalf("GetHabit() error: %v", err)
		}
		if got.Name != "read" || got.Frequency != constants.FrequencyWeekly {
			t.Errorf("GetHabit() = %+v", got)
		}
		if len(got.DaysOfWeek) != 3 || got.DaysOfWeek[1] != 3 {
			t.Errorf("DaysOfWeek = %v, want [1 3 5]", got.DaysOfWeek)
		}
		if got.LastCompletedAt == nil || !got.LastCompletedAt.Equal(lastDone) {
			t.Errorf("LastCompletedAt = %v, want %v", got.LastCompletedAt, lastDone)
		}

		byName, err := store.GetHabitByName("local", "read")
		if err != nil || byName.ID != "h1" {
			t.Errorf("GetHabitByName() = %+v, %v", byName, err)
		}

		got.CurrentStreak = 0
		now := created.AddDate(0, 0, 7)
		got.LastStreakBreak = &now
		if err := store.UpdateHabit(got); err != nil {
			t.Fatalf("UpdateHabit() error: %v", err)
		}
		got, _ = store.GetHabit("h1")
		if got.CurrentStreak != 0 || got.LastStreakBreak == nil {
			t.Errorf("habit after update = %+v", got)
		}

		if err := store.UpdateHabit(models.Habit{ID: "ghost", UserID: "local", Name: "x"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateHabit(ghost) error = %v, want ErrNotFound", err)
		}
	})
}

func TestGetAllHabitsArchivedFilter(t *testing.T) {
	forEachProvider(t, func(t *testing.T, store Provider) {
		created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		archivedAt := created.AddDate(0, 0, 3)

		store.AddHabit(models.Habit{ID: "a", UserID: "local", Name: "active", CreatedAt: created, IsActive: true})
		store.AddHabit(models.Habit{
			ID: "b", UserID: "local", Name: "shelved", CreatedAt: created,
			IsActive: true, IsArchived: true, ArchivedAt: &archivedAt,
		})
		store.AddHabit(models.Habit{ID: "c", UserID: "other", Name: "theirs", CreatedAt: created, IsActive: true})

		active, err := store.GetAllHabits("local", false)
		if err != nil {
			t.Fatalf("GetAllHabits(false) error: %v", err)
		}
		if len(active) != 1 || active[0].ID != "a" {
			t.Errorf("active habits = %+v, want only a", active)
		}

		all, err := store.GetAllHabits("local", true)
		if err != nil {
			t.Fatalf("GetAllHabits(true) error: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("all habits = %d, want 2 (other user excluded)", len(all))
		}
	})
}

func TestProgressRoundTrip(t *testing.T) {
	forEachProvider(t, func(t *testing.T, store Provider) {
		when := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
		record := models.Progress{
			HabitID:      "h1",
			UserID:       "local",
			Date:         "2024-03-10",
			Completed:    true,
			Timestamp:    when,
			PointsEarned: 10,
		}
		if err := store.AddProgress(record); err != nil {
			t.Fatalf("AddProgress() error: %v", err)
		}

		// The (habit, date) key admits one record only.
		if err := store.AddProgress(record); err == nil {
			t.Error("duplicate AddProgress() succeeded, want error")
		}

		got, err := store.GetProgress("h1", "2024-03-10")
		if err != nil {
			t.Fatalf("GetProgress() error: %v", err)
		}
		if !got.Completed || got.PointsEarned != 10 {
			t.Errorf("GetProgress() = %+v", got)
		}

		if _, err := store.GetProgress("h1", "2024-03-11"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProgress(other day) error = %v, want ErrNotFound", err)
		}

		got.Completed = false
		if err := store.UpdateProgress(got); err != nil {
			t.Fatalf("UpdateProgress() error: %v", err)
		}

		// Undone records drop out of the completed-day query.
		completed, err := store.GetCompletedForDay("local", "2024-03-10")
		if err != nil {
			t.Fatalf("GetCompletedForDay() error: %v", err)
		}
		if len(completed) != 0 {
			t.Errorf("completed = %+v, want none after undo", completed)
		}

		history, err := store.GetProgressForHabit("h1")
		if err != nil {
			t.Fatalf("GetProgressForHabit() error: %v", err)
		}
		if len(history) != 1 {
			t.Errorf("history = %d records, want 1", len(history))
		}
	})
}

func TestGetCompletedForDay(t *testing.T) {
	forEachProvider(t, func(t *testing.T, store Provider) {
		when := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
		add := func(habitID, date string, completed bool) {
			t.Helper()
			if err := store.AddProgress(models.Progress{
				HabitID: habitID, UserID: "local", Date: date,
				Completed: completed, Timestamp: when,
			}); err != nil {
				t.Fatalf("AddProgress(%s, %s) error: %v", habitID, date, err)
			}
		}

		add("h1", "2024-03-10", true)
		add("h2", "2024-03-10", false)
		add("h1", "2024-03-09", true)

		completed, err := store.GetCompletedForDay("local", "2024-03-10")
		if err != nil {
			t.Fatalf("GetCompletedForDay() error: %v", err)
		}
		if len(completed) != 1 || completed[0].HabitID != "h1" {
			t.Errorf("completed = %+v, want only h1 on 03-10", completed)
		}
	})
}

func TestFishRoundTrip(t *testing.T) {
	forEachProvider(t, func(t *testing.T, store Provider) {
		created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		fed := created.AddDate(0, 0, 4)
		fish := models.Fish{
			ID:        "f1",
			UserID:    "local",
			HabitID:   "h1",
			Name:      "read's goldfish",
			Species:   "goldfish",
			CreatedAt: created,
			IsAlive:   true,
			LastFedAt: &fed,
		}
		if err := store.AddFish(fish); err != nil {
			t.Fatalf("AddFish() error: %v", err)
		}

		got, err := store.GetFish("f1")
		if err != nil {
			t.Fatalf("GetFish() error: %v", err)
		}
		if got.Species != "goldfish" || !got.IsAlive {
			t.Errorf("GetFish() = %+v", got)
		}
		if got.LastFedAt == nil || !got.LastFedAt.Equal(fed) {
			t.Errorf("LastFedAt = %v, want %v", got.LastFedAt, fed)
		}

		byName, err := store.GetFishByName("local", "read's goldfish")
		if err != nil || byName.ID != "f1" {
			t.Errorf("GetFishByName() = %+v, %v", byName, err)
		}

		byHabit, err := store.GetFishByHabit("h1")
		if err != nil || len(byHabit) != 1 {
			t.Errorf("GetFishByHabit() = %+v, %v", byHabit, err)
		}

		diedAt := created.AddDate(0, 0, 30)
		got.IsAlive = false
		got.DeathDate = &diedAt
		got.DeathReason = constants.DeathReasonStarvation
		if err := store.UpdateFish(got); err != nil {
			t.Fatalf("UpdateFish() error: %v", err)
		}
		got, _ = store.GetFish("f1")
		if got.IsAlive || got.DeathReason != constants.DeathReasonStarvation {
			t.Errorf("fish after death update = %+v", got)
		}
		if got.DeathDate == nil || !got.DeathDate.Equal(diedAt) {
			t.Errorf("DeathDate = %v, want %v", got.DeathDate, diedAt)
		}

		if err := store.DeleteFish("f1"); err != nil {
			t.Fatalf("DeleteFish() error: %v", err)
		}
		if _, err := store.GetFish("f1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetFish() after delete error = %v, want ErrNotFound", err)
		}
	})
}

func TestJSONStorePersistsAcrossReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	first := NewJSONStore(path)
	if err := first.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := first.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := first.AddHabit(models.Habit{
		ID: "h1", UserID: "local", Name: "read", CreatedAt: created,
		IsActive: true, Repeats: true, Frequency: constants.FrequencyDaily,
	}); err != nil {
		t.Fatalf("AddHabit() error: %v", err)
	}
	first.Close()

	second := NewJSONStore(path)
	if err := second.Load(); err != nil {
		t.Fatalf("reload error: %v", err)
	}
	got, err := second.GetHabit("h1")
	if err != nil {
		t.Fatalf("GetHabit() after reload error: %v", err)
	}
	if got.Name != "read" || !got.CreatedAt.Equal(created) {
		t.Errorf("habit after reload = %+v", got)
	}
}
