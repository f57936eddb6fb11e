package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/reminder"
)

type RemindCmd struct {
	Watch    bool          `help:"Keep running and re-announce due habits on an interval."`
	Interval time.Duration `help:"Re-check interval in watch mode (default 1h)." default:"0"`
}

func (c *RemindCmd) Run(ctx *Context) error {
	due, err := ctx.Reminders.EligibleToday(ctx.UserID)
	if err != nil {
		return err
	}
	printDue(due)

	if !c.Watch {
		return nil
	}

	interval := c.Interval
	if interval <= 0 {
		interval = constants.DefaultReminderInterval
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(dimStyle.Render(fmt.Sprintf("Watching; re-checking every %s. Ctrl-C to stop.", interval)))
	scheduler := reminder.NewScheduler(ctx.Reminders, ctx.UserID, interval)
	scheduler.Start(sigCtx, printDue)
	<-sigCtx.Done()
	return nil
}

func printDue(due []models.Habit) {
	if len(due) == 0 {
		fmt.Println(successStyle.Render("Nothing due. Your fish are content."))
		return
	}
	fmt.Printf("Still due today (%d):\n", len(due))
	for _, h := range due {
		fmt.Println("  - " + h.Name)
	}
}
