package cli

import (
	"errors"
	"fmt"

	"github.com/fishbit-app/fishbit/internal/storage"
)

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *Context) error {
	summary, err := ctx.Checks.UserStatus(ctx.UserID)
	if err != nil {
		return err
	}

	fmt.Printf("Status for %s", summary.Date)
	if ctx.Clock.IsSimulated() {
		fmt.Print(warningStyle.Render(" (simulated time " + ctx.Clock.OffsetString() + ")"))
	}
	fmt.Println()

	fmt.Printf("  Habits due today: %d, completed: %d, remaining: %d (%d%%)\n",
		summary.TotalHabits, summary.CompletedHabits, summary.RemainingHabits, summary.CompletionRate)

	user, err := ctx.Store.GetUser(ctx.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println(dimStyle.Render("  No profile yet. Run 'fishbit init'."))
			return nil
		}
		return err
	}
	fmt.Printf("  Points: %d, streak: %d day(s), longest: %d\n",
		user.TotalPoints, user.CurrentStreak, user.LongestStreak)

	due, err := ctx.Reminders.EligibleToday(ctx.UserID)
	if err != nil {
		return err
	}
	if len(due) > 0 {
		fmt.Println("  Still due:")
		for _, h := range due {
			fmt.Println("    - " + h.Name)
		}
	} else if summary.TotalHabits > 0 {
		fmt.Println(successStyle.Render("  Everything done for today!"))
	}
	return nil
}
