package streak

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/timeclock"
)

const testUser = "local"

func newTestEngine(t *testing.T, now time.Time) (*Engine, storage.Provider, *timeclock.Clock) {
	t.Helper()

	store := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := timeclock.New(store)
	clock.SetWallClock(func() time.Time { return now })

	if err := store.SaveUser(models.User{ID: testUser, CreatedAt: now}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return NewEngine(store, clock), store, clock
}

func dailyHabit(id, name string, created time.Time, streak int) models.Habit {
	var lastCompleted *time.Time
	if streak > 0 {
		last := created.AddDate(0, 0, streak-1)
		lastCompleted = &last
	}
	return models.Habit{
		ID:              id,
		UserID:          testUser,
		Name:            name,
		CreatedAt:       created,
		IsActive:        true,
		Repeats:         true,
		Frequency:       constants.FrequencyDaily,
		CurrentStreak:   streak,
		BestStreak:      streak,
		LastCompletedAt: lastCompleted,
	}
}

func TestCheckUserStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("breaks when nothing completed yesterday", func(t *testing.T) {
		engine, store, _ := newTestEngine(t, now)

		user, _ := store.GetUser(testUser)
		user.CurrentStreak = 5
		user.LongestStreak = 8
		if err := store.UpdateUser(user); err != nil {
			t.Fatalf("failed to seed streak: %v", err)
		}

		result, err := engine.CheckUserStreak(testUser)
		if err != nil {
			t.Fatalf("CheckUserStreak() error: %v", err)
		}
		if !result.Broken {
			t.Error("Broken = false, want true")
		}
		if result.PreviousStreak != 5 {
			t.Errorf("PreviousStreak = %d, want 5", result.PreviousStreak)
		}

		user, _ = store.GetUser(testUser)
		if user.CurrentStreak != 0 {
			t.Errorf("stored streak = %d, want 0", user.CurrentStreak)
		}
		if user.LongestStreak != 8 {
			t.Errorf("longest streak = %d, want 8 untouched", user.LongestStreak)
		}
	})

	t.Run("survives with a completion yesterday", func(t *testing.T) {
		engine, store, clock := newTestEngine(t, now)

		user, _ := store.GetUser(testUser)
		user.CurrentStreak = 5
		store.UpdateUser(user)

		habit := dailyHabit("h1", "read", now.AddDate(0, 0, -10), 5)
		store.AddHabit(habit)
		store.AddProgress(models.Progress{
			HabitID:   habit.ID,
			UserID:    testUser,
			Date:      clock.YesterdayString(),
			Completed: true,
			Timestamp: now.AddDate(0, 0, -1),
		})

		result, err := engine.CheckUserStreak(testUser)
		if err != nil {
			t.Fatalf("CheckUserStreak() error: %v", err)
		}
		if result.Broken {
			t.Error("Broken = true, want false")
		}

		user, _ = store.GetUser(testUser)
		if user.CurrentStreak != 5 {
			t.Errorf("streak = %d, want 5", user.CurrentStreak)
		}
	})

	t.Run("zero streak is left untouched", func(t *testing.T) {
		engine, store, _ := newTestEngine(t, now)

		result, err := engine.CheckUserStreak(testUser)
		if err != nil {
			t.Fatalf("CheckUserStreak() error: %v", err)
		}
		if result.Broken {
			t.Error("Broken = true for already-zero streak")
		}

		user, _ := store.GetUser(testUser)
		if user.CurrentStreak != 0 {
			t.Errorf("streak = %d, want 0", user.CurrentStreak)
		}
	})
}

func TestCheckHabitStreaks(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -30)

	t.Run("breaks missed habit and keeps completed one", func(t *testing.T) {
		engine, store, clock := newTestEngine(t, now)

		missed := dailyHabit("h1", "read", created, 4)
		kept := dailyHabit("h2", "run", created, 6)
		store.AddHabit(missed)
		store.AddHabit(kept)
		store.AddProgress(models.Progress{
			HabitID:   kept.ID,
			UserID:    testUser,
			Date:      clock.YesterdayString(),
			Completed: true,
			Timestamp: now.AddDate(0, 0, -1),
		})

		result, err := engine.CheckHabitStreaks(testUser)
		if err != nil {
			t.Fatalf("CheckHabitStreaks() error: %v", err)
		}
		if result.TotalChecked != 2 {
			t.Errorf("TotalChecked = %d, want 2", result.TotalChecked)
		}
		if len(result.Broken) != 1 || result.Broken[0].HabitID != "h1" {
			t.Fatalf("Broken = %+v, want only h1", result.Broken)
		}
		if result.Broken[0].PreviousStreak != 4 {
			t.Errorf("PreviousStreak = %d, want 4", result.Broken[0].PreviousStreak)
		}

		got, _ := store.GetHabit("h1")
		if got.CurrentStreak != 0 {
			t.Errorf("missed habit streak = %d, want 0", got.CurrentStreak)
		}
		if got.LastStreakBreak == nil {
			t.Error("LastStreakBreak not stamped")
		}

		got, _ = store.GetHabit("h2")
		if got.CurrentStreak != 6 {
			t.Errorf("kept habit streak = %d, want 6", got.CurrentStreak)
		}
	})

	t.Run("skips habit not expected yesterday", func(t *testing.T) {
		engine, store, _ := newTestEngine(t, now)

		// 2024-03-09 was a Saturday; habit runs Mon/Wed only.
		habit := dailyHabit("h1", "gym", created, 3)
		habit.Frequency = constants.FrequencyWeekly
		habit.DaysOfWeek = []int{1, 3}
		store.AddHabit(habit)

		result, err := engine.CheckHabitStreaks(testUser)
		if err != nil {
			t.Fatalf("CheckHabitStreaks() error: %v", err)
		}
		if len(result.Broken) != 0 {
			t.Errorf("Broken = %+v, want none for day off", result.Broken)
		}

		got, _ := store.GetHabit("h1")
		if got.CurrentStreak != 3 {
			t.Errorf("streak = %d, want 3", got.CurrentStreak)
		}
	})

	t.Run("rerun with zero streaks is a no-op", func(t *testing.T) {
		engine, store, clock := newTestEngine(t, now)

		habit := dailyHabit("h1", "read", created, 4)
		store.AddHabit(habit)

		if _, err := engine.CheckHabitStreaks(testUser); err != nil {
			t.Fatalf("first pass error: %v", err)
		}
		first, _ := store.GetHabit("h1")

		// Still the same day, but a rewrite would move the break stamp.
		clock.FastForward(1)

		result, err := engine.CheckHabitStreaks(testUser)
		if err != nil {
			t.Fatalf("second pass error: %v", err)
		}
		if len(result.Broken) != 0 {
			t.Errorf("second pass broke %d habits, want 0", len(result.Broken))
		}

		second, _ := store.GetHabit("h1")
		if first.LastStreakBreak == nil || second.LastStreakBreak == nil {
			t.Fatal("LastStreakBreak missing")
		}
		if !first.LastStreakBreak.Equal(*second.LastStreakBreak) {
			t.Error("second pass rewrote LastStreakBreak on an already-zero streak")
		}
	})

	t.Run("ignores archived habits", func(t *testing.T) {
		engine, store, _ := newTestEngine(t, now)

		habit := dailyHabit("h1", "read", created, 4)
		habit.IsArchived = true
		archivedAt := now.AddDate(0, 0, -2)
		habit.ArchivedAt = &archivedAt
		store.AddHabit(habit)

		result, err := engine.CheckHabitStreaks(testUser)
		if err != nil {
			t.Fatalf("CheckHabitStreaks() error: %v", err)
		}
		if result.TotalChecked != 0 {
			t.Errorf("TotalChecked = %d, want 0 for archived habit", result.TotalChecked)
		}
	})
}

func TestSweepMissedDays(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("breaks everything after silent days", func(t *testing.T) {
		engine, store, _ := newTestEngine(t, now)

		user, _ := store.GetUser(testUser)
		user.CurrentStreak = 12
		store.UpdateUser(user)

		active := dailyHabit("h1", "read", now.AddDate(0, 0, -30), 12)
		archived := dailyHabit("h2", "sketch", now.AddDate(0, 0, -30), 3)
		archived.IsArchived = true
		store.AddHabit(active)
		store.AddHabit(archived)

		report, err := engine.SweepMissedDays(testUser, 3)
		if err != nil {
			t.Fatalf("SweepMissedDays() error: %v", err)
		}
		if report.DaysChecked != 3 {
			t.Errorf("DaysChecked = %d, want 3", report.DaysChecked)
		}
		if len(report.MissedDays) != 3 {
			t.Errorf("MissedDays = %v, want all 3 days", report.MissedDays)
		}
		if !report.StreaksBroken {
			t.Error("StreaksBroken = false, want true")
		}
		// The coarse sweep resets every habit with a streak, archived included.
		if len(report.BrokenHabits) != 2 {
			t.Errorf("BrokenHabits = %d, want 2", len(report.BrokenHabits))
		}

		user, _ = store.GetUser(testUser)
		if user.CurrentStreak != 0 {
			t.Errorf("user streak = %d, want 0", user.CurrentStreak)
		}
	})

	t.Run("mixed week flags only the silent days", func(t *testing.T) {
		engine, store, clock := newTestEngine(t, now)

		user, _ := store.GetUser(testUser)
		user.CurrentStreak = 7
		store.UpdateUser(user)

		h1 := dailyHabit("h1", "read", now.AddDate(0, 0, -30), 7)
		h2 := dailyHabit("h2", "sketch", now.AddDate(0, 0, -30), 2)
		store.AddHabit(h1)
		store.AddHabit(h2)

		// Days 3 and 5 ago stay silent; everything else got a completion.
		for i := 1; i <= 7; i++ {
			if i == 3 || i == 5 {
				continue
			}
			store.AddProgress(models.Progress{
				HabitID:   h1.ID,
				UserID:    testUser,
				Date:      clock.DateString(i),
				Completed: true,
				Timestamp: now.AddDate(0, 0, -i),
			})
		}

		report, err := engine.SweepMissedDays(testUser, 7)
		if err != nil {
			t.Fatalf("SweepMissedDays() error: %v", err)
		}
		want := []string{clock.DateString(3), clock.DateString(5)}
		if len(report.MissedDays) != 2 || report.MissedDays[0] != want[0] || report.MissedDays[1] != want[1] {
			t.Errorf("MissedDays = %v, want %v", report.MissedDays, want)
		}
		if !report.StreaksBroken {
			t.Error("StreaksBroken = false, want true")
		}
		if len(report.BrokenHabits) != 2 {
			t.Errorf("BrokenHabits = %d, want both positive-streak habits", len(report.BrokenHabits))
		}

		user, _ = store.GetUser(testUser)
		if user.CurrentStreak != 0 {
			t.Errorf("user streak = %d, want 0", user.CurrentStreak)
		}
		for _, id := range []string{"h1", "h2"} {
			got, _ := store.GetHabit(id)
			if got.CurrentStreak != 0 {
				t.Errorf("habit %s streak = %d, want 0", id, got.CurrentStreak)
			}
		}
	})

	t.Run("no missed days means no writes", func(t *testing.T) {
		engine, store, clock := newTestEngine(t, now)

		user, _ := store.GetUser(testUser)
		user.CurrentStreak = 4
		store.UpdateUser(user)

		habit := dailyHabit("h1", "read", now.AddDate(0, 0, -30), 4)
		store.AddHabit(habit)
		for i := 1; i <= 2; i++ {
			store.AddProgress(models.Progress{
				HabitID:   habit.ID,
				UserID:    testUser,
				Date:      clock.DateString(i),
				Completed: true,
				Timestamp: now.AddDate(0, 0, -i),
			})
		}

		report, err := engine.SweepMissedDays(testUser, 2)
		if err != nil {
			t.Fatalf("SweepMissedDays() error: %v", err)
		}
		if len(report.MissedDays) != 0 {
			t.Errorf("MissedDays = %v, want none", report.MissedDays)
		}
		if report.StreaksBroken {
			t.Error("StreaksBroken = true, want false")
		}

		user, _ = store.GetUser(testUser)
		if user.CurrentStreak != 4 {
			t.Errorf("user streak = %d, want 4", user.CurrentStreak)
		}
	})
}

func TestNextHabitStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	threeDaysAgo := now.AddDate(0, 0, -3)
	earlierToday := now.Add(-2 * time.Hour)

	tests := []struct {
		name  string
		habit models.Habit
		want  int
	}{
		{
			name:  "first completion starts at one",
			habit: models.Habit{},
			want:  1,
		},
		{
			name:  "consecutive day increments",
			habit: models.Habit{CurrentStreak: 3, LastCompletedAt: &yesterday},
			want:  4,
		},
		{
			name:  "same day leaves streak unchanged",
			habit: models.Habit{CurrentStreak: 3, LastCompletedAt: &earlierToday},
			want:  3,
		},
		{
			name:  "same day with zero streak yields one",
			habit: models.Habit{CurrentStreak: 0, LastCompletedAt: &earlierToday},
			want:  1,
		},
		{
			name:  "gap restarts at one",
			habit: models.Habit{CurrentStreak: 9, LastCompletedAt: &threeDaysAgo},
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextHabitStreak(tt.habit, now); got != tt.want {
				t.Errorf("NextHabitStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUserStreakAfterCompletion(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	seedProgress := func(t *testing.T, store storage.Provider, habitID, date string) {
		t.Helper()
		if err := store.AddProgress(models.Progress{
			HabitID:   habitID,
			UserID:    testUser,
			Date:      date,
			Completed: true,
			Timestamp: now,
		}); err != nil {
			t.Fatalf("failed to seed progress: %v", err)
		}
	}

	t.Run("first completion after active yesterday extends", func(t *testing.T) {
		engine, store, clock := newTestEngine(t, now)

		user, _ := store.GetUser(testUser)
		user.CurrentStreak = 6
		store.UpdateUser(user)

		store.AddHabit(dailyHabit("h1", "read", now.AddDate(0, 0, -10), 6))
		seedProgress(t, store, "h1", clock.YesterdayString())
		seedProgress(t, store, "h1", clock.TodayString())

		got, err := engine.UserStreakAfterCompletion(testUser)
		if err != nil {
			t.Fatalf("UserStreakAfterCompletion() error: %v", err)
		}
		if got != 7 {
			t.Errorf("streak = %d, want 7", got)
		}
	})

	t.Run("first completion after silent yesterday restarts", func(t *testing.T) {
		engine, store, clock := newTestEngine(t, now)

		store.AddHabit(dailyHabit("h1", "read", now.AddDate(0, 0, -10), 0))
		seedProgress(t, store, "h1", clock.TodayString())

		got, err := engine.UserStreakAfterCompletion(testUser)
		if err != nil {
			t.Fatalf("UserStreakAfterCompletion() error: %v", err)
		}
		if got != 1 {
			t.Errorf("streak = %d, want 1", got)
		}
	})

	t.Run("second completion today does not double count", func(t *testing.T) {
		engine, store, clock := newTestEngine(t, now)

		user, _ := store.GetUser(testUser)
		user.CurrentStreak = 7
		store.UpdateUser(user)

		store.AddHabit(dailyHabit("h1", "read", now.AddDate(0, 0, -10), 6))
		store.AddHabit(dailyHabit("h2", "run", now.AddDate(0, 0, -10), 2))
		seedProgress(t, store, "h1", clock.TodayString())
		seedProgress(t, store, "h2", clock.TodayString())

		got, err := engine.UserStreakAfterCompletion(testUser)
		if err != nil {
			t.Fatalf("UserStreakAfterCompletion() error: %v", err)
		}
		if got != 7 {
			t.Errorf("streak = %d, want 7 unchanged", got)
		}
	})
}
