package reminder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/timeclock"
)

const testUser = "local"

func newTestService(t *testing.T, now time.Time) (*Service, storage.Provider, *timeclock.Clock) {
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

	return New(store, clock), store, clock
}

func TestEligibleToday(t *testing.T) {
	// 2024-03-10 is a Sunday.
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -30)

	service, store, clock := newTestService(t, now)

	addHabit := func(id string, habit models.Habit) {
		habit.ID = id
		habit.UserID = testUser
		habit.Name = id
		habit.CreatedAt = created
		if err := store.AddHabit(habit); err != nil {
			t.Fatalf("failed to seed habit %s: %v", id, err)
		}
	}

	addHabit("due", models.Habit{IsActive: true, Repeats: true, Frequency: constants.FrequencyDaily})
	addHabit("done", models.Habit{IsActive: true, Repeats: true, Frequency: constants.FrequencyDaily})
	addHabit("inactive", models.Habit{IsActive: false, Repeats: true, Frequency: constants.FrequencyDaily})
	addHabit("weekday-off", models.Habit{
		IsActive: true, Repeats: true,
		Frequency: constants.FrequencyWeekly, DaysOfWeek: []int{1}, // Mondays
	})

	archived := models.Habit{
		ID: "shelved", UserID: testUser, Name: "shelved", CreatedAt: created,
		IsActive: true, IsArchived: true, Repeats: true, Frequency: constants.FrequencyDaily,
	}
	archivedAt := created.AddDate(0, 0, 1)
	archived.ArchivedAt = &archivedAt
	if err := store.AddHabit(archived); err != nil {
		t.Fatalf("failed to seed archived habit: %v", err)
	}

	if err := store.AddProgress(models.Progress{
		HabitID: "done", UserID: testUser, Date: clock.TodayString(),
		Completed: true, Timestamp: now,
	}); err != nil {
		t.Fatalf("failed to seed progress: %v", err)
	}

	due, err := service.EligibleToday(testUser)
	if err != nil {
		t.Fatalf("EligibleToday() error: %v", err)
	}

	if len(due) != 1 || due[0].ID != "due" {
		ids := make([]string, len(due))
		for i, h := range due {
			ids[i] = h.ID
		}
		t.Errorf("EligibleToday() = %v, want only [due]", ids)
	}
}

func TestEligibleTodayEmptyTank(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	service, _, _ := newTestService(t, now)

	due, err := service.EligibleToday(testUser)
	if err != nil {
		t.Fatalf("EligibleToday() error: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("EligibleToday() = %d habits, want none", len(due))
	}
}

func TestSchedulerNotifiesDueHabits(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	service, store, _ := newTestService(t, now)

	if err := store.AddHabit(models.Habit{
		ID: "due", UserID: testUser, Name: "due", CreatedAt: now.AddDate(0, 0, -5),
		IsActive: true, Repeats: true, Frequency: constants.FrequencyDaily,
	}); err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notified := make(chan []models.Habit, 1)
	scheduler := NewScheduler(service, testUser, 5*time.Millisecond)
	scheduler.Start(ctx, func(due []models.Habit) {
		select {
		case notified <- due:
		default:
		}
	})

	select {
	case due := <-notified:
		if len(due) != 1 || due[0].ID != "due" {
			t.Errorf("notified with %+v, want the due habit", due)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never notified")
	}
}

func TestSchedulerStartsOnce(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	service, _, _ := newTestService(t, now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := NewScheduler(service, testUser, time.Hour)
	scheduler.Start(ctx, func([]models.Habit) {})
	if !scheduler.started.Load() {
		t.Fatal("scheduler not marked started")
	}
	// The second call must be a no-op, not a second loop.
	scheduler.Start(ctx, func([]models.Habit) {
		t.Error("second Start() registered a new callback loop")
	})
}
