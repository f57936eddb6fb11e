package cli

import (
	"errors"
	"fmt"

	"github.com/fishbit-app/fishbit/internal/constants"
	errs "github.com/fishbit-app/fishbit/internal/errors"
	"github.com/fishbit-app/fishbit/internal/habits"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/recurrence"
	"github.com/fishbit-app/fishbit/internal/storage"
)

type HabitCmd struct {
	Add       HabitAddCmd       `cmd:"" help:"Add a new habit."`
	List      HabitListCmd      `cmd:"" help:"List habits."`
	Complete  HabitCompleteCmd  `cmd:"" help:"Mark a habit as done for today."`
	Undo      HabitUndoCmd      `cmd:"" help:"Undo today's completion of a habit."`
	Archive   HabitArchiveCmd   `cmd:"" help:"Archive a habit."`
	Unarchive HabitUnarchiveCmd `cmd:"" help:"Unarchive a habit."`
}

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `help:"Optional description." default:""`
	Once        bool   `help:"One-time habit (does not repeat)."`
	Frequency   string `help:"Repeat frequency: daily, weekly, or custom." enum:"daily,weekly,custom" default:"daily"`
	Days        string `help:"Weekdays for weekly habits (e.g. mon,wed,fri)." default:""`
	Every       int    `help:"Interval in days for custom frequency." default:"0"`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	habit := models.Habit{
		UserID:      ctx.UserID,
		Name:        c.Name,
		Description: c.Description,
		Repeats:     !c.Once,
		Frequency:   constants.Frequency(c.Frequency),
	}
	if c.Days != "" {
		days, err := ParseWeekdays(c.Days)
		if err != nil {
			return err
		}
		habit.DaysOfWeek = days
		habit.Frequency = constants.FrequencyWeekly
	}
	if c.Every > 0 {
		habit.CustomInterval = c.Every
		habit.Frequency = constants.FrequencyCustom
	}

	created, err := ctx.Habits.Create(habit)
	if err != nil {
		return err
	}

	fmt.Printf("Added habit: %s (%s)\n", created.Name, FormatSchedule(created))

	fish, err := ctx.Store.GetFishByHabit(created.ID)
	if err == nil && len(fish) > 0 {
		fmt.Println(accentStyle.Render(fmt.Sprintf("A new fish joined your tank: %s the %s!", fish[0].Name, fish[0].Species)))
	}
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	habitList, err := ctx.Store.GetAllHabits(ctx.UserID, c.Archived)
	if err != nil {
		return err
	}
	if len(habitList) == 0 {
		fmt.Println("No habits found. Add one with 'fishbit habit add'.")
		return nil
	}

	today := ctx.Clock.TodayString()
	completed, err := ctx.Store.GetCompletedForDay(ctx.UserID, today)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(completed))
	for _, p := range completed {
		done[p.HabitID] = true
	}

	for _, habit := range habitList {
		mark := "[ ]"
		if done[habit.ID] {
			mark = successStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", mark, habit.Name)
		if habit.CurrentStreak > 0 {
			line += accentStyle.Render(fmt.Sprintf("  %dd streak", habit.CurrentStreak))
		}
		if habit.IsArchived {
			line += dimStyle.Render("  [ARCHIVED]")
		} else if !recurrence.IsExpectedOn(habit, today) {
			line += dimStyle.Render("  (not due today)")
		}
		fmt.Println(line)
	}
	return nil
}

type HabitCompleteCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitCompleteCmd) Run(ctx *Context) error {
	habit, err := ctx.Store.GetHabitByName(ctx.UserID, c.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("habit", c.Name)
		}
		return err
	}

	result, err := ctx.Habits.Complete(habit.ID)
	if err != nil {
		if errors.Is(err, habits.ErrAlreadyCompleted) {
			fmt.Println(warningStyle.Render(fmt.Sprintf("%q is already done for today.", c.Name)))
			return nil
		}
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Completed %q! +%d points", c.Name, result.Points)))
	fmt.Printf("  Habit streak: %d day(s), your streak: %d day(s)\n", result.HabitStreak, result.UserStreak)
	if result.Bonus > 0 {
		fmt.Println(accentStyle.Render(fmt.Sprintf("  Streak bonus: +%d points!", result.Bonus)))
	}
	return nil
}

type HabitUndoCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitUndoCmd) Run(ctx *Context) error {
	habit, err := ctx.Store.GetHabitByName(ctx.UserID, c.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("habit", c.Name)
		}
		return err
	}
	if err := ctx.Habits.Undo(habit.ID); err != nil {
		return err
	}
	fmt.Printf("Unmarked %q for today.\n", c.Name)
	return nil
}

type HabitArchiveCmd struct {
	Name string `arg:"" help:"Habit name to archive."`
}

func (c *HabitArchiveCmd) Run(ctx *Context) error {
	habit, err := ctx.Store.GetHabitByName(ctx.UserID, c.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("habit", c.Name)
		}
		return err
	}
	if err := ctx.Habits.Archive(habit.ID); err != nil {
		return err
	}
	fmt.Printf("Archived habit: %s\n", c.Name)
	fmt.Println(dimStyle.Render("Its fish is exempt from health checks until you unarchive."))
	return nil
}

type HabitUnarchiveCmd struct {
	Name string `arg:"" help:"Habit name to unarchive."`
}

func (c *HabitUnarchiveCmd) Run(ctx *Context) error {
	habit, err := ctx.Store.GetHabitByName(ctx.UserID, c.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("habit", c.Name)
		}
		return err
	}
	if err := ctx.Habits.Unarchive(habit.ID); err != nil {
		return err
	}
	fmt.Printf("Unarchived habit: %s\n", c.Name)
	return nil
}
