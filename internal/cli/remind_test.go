package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/dailycheck"
	"github.com/fishbit-app/fishbit/internal/habits"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/reminder"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/streak"
	"github.com/fishbit-app/fishbit/internal/timeclock"
	"github.com/fishbit-app/fishbit/internal/vitality"
)

func newTestContext(t *testing.T, now time.Time) *Context {
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

	if err := store.SaveUser(models.User{ID: constants.DefaultUserID, CreatedAt: now}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	streaks := streak.NewEngine(store, clock)
	vit := vitality.NewEngine(store, clock)
	return &Context{
		Store:     store,
		Clock:     clock,
		Habits:    habits.NewService(store, clock, streaks, vit),
		Vitality:  vit,
		Checks:    dailycheck.New(store, clock, streaks, vit),
		Reminders: reminder.New(store, clock),
		UserID:    constants.DefaultUserID,
	}
}

func TestCheckCmdCatchUpDefaultWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := newTestContext(t, now)

	user, _ := ctx.Store.GetUser(ctx.UserID)
	user.CurrentStreak = 6
	ctx.Store.UpdateUser(user)

	cmd := &CheckCmd{CatchUp: true, NoFish: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Every day of the default window was silent, so the streak breaks.
	user, _ = ctx.Store.GetUser(ctx.UserID)
	if user.CurrentStreak != 0 {
		t.Errorf("user streak = %d, want 0 after default catch-up sweep", user.CurrentStreak)
	}
}

func TestRemindCmdListsDueHabits(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := newTestContext(t, now)

	if err := ctx.Store.AddHabit(models.Habit{
		ID:        "h1",
		UserID:    ctx.UserID,
		Name:      "water plants",
		CreatedAt: now.AddDate(0, 0, -5),
		IsActive:  true,
		Repeats:   true,
		Frequency: constants.FrequencyDaily,
	}); err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	cmd := &RemindCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	due, err := ctx.Reminders.EligibleToday(ctx.UserID)
	if err != nil {
		t.Fatalf("EligibleToday() error: %v", err)
	}
	if len(due) != 1 || due[0].ID != "h1" {
		t.Errorf("due = %+v, want the seeded habit", due)
	}
}
