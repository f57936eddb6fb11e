package cli

import (
	"fmt"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
)

type CheckCmd struct {
	Days    int  `help:"Also sweep the last N missed days before today's check." default:"0"`
	CatchUp bool `help:"Sweep the default missed-day window before today's check."`
	NoFish  bool `help:"Skip the fish vitality sweep."`
}

func (c *CheckCmd) Run(ctx *Context) error {
	days := c.Days
	if c.CatchUp && days == 0 {
		days = constants.DefaultCatchUpDays
	}

	if days > 0 {
		catchUp, report := ctx.Checks.CatchUp(ctx.UserID, days, !c.NoFish)
		printCatchUp(catchUp)
		printReport(report)
		return nil
	}

	report := ctx.Checks.Run(ctx.UserID, !c.NoFish)
	printReport(report)
	return nil
}

func printCatchUp(catchUp models.CatchUpReport) {
	fmt.Printf("Swept %d day(s): %d missed.\n", catchUp.DaysChecked, len(catchUp.MissedDays))
	if catchUp.StreaksBroken {
		fmt.Println(warningStyle.Render(fmt.Sprintf("  %d streak(s) broken while you were away.", len(catchUp.BrokenHabits))))
	}
	for _, e := range catchUp.Errors {
		fmt.Println(dangerStyle.Render("  error: " + e))
	}
}

func printReport(report *models.DailyCheckReport) {
	if report == nil {
		fmt.Println("No check has run yet.")
		return
	}

	fmt.Printf("Checked %d habit(s) and %d fish.\n", report.HabitsChecked, report.FishChecked)

	if report.UserStreakBroken {
		fmt.Println(warningStyle.Render(fmt.Sprintf("Your %d-day streak has ended.", report.PreviousUserStreak)))
	}
	for _, broken := range report.BrokenHabits {
		fmt.Println(warningStyle.Render(fmt.Sprintf("  Streak lost: %s (was %d days)", broken.HabitName, broken.PreviousStreak)))
	}
	for _, death := range report.Deaths {
		fmt.Println(dangerStyle.Render(fmt.Sprintf("  %s has died (%s).", death.FishName, constants.DeathReasonStarvation)))
	}
	if !report.UserStreakBroken && len(report.BrokenHabits) == 0 && len(report.Deaths) == 0 {
		fmt.Println(successStyle.Render("All streaks intact, all fish fed."))
	}
	for _, e := range report.Errors {
		fmt.Println(dangerStyle.Render("  error: " + e))
	}
}
