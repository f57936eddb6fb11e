package cli

import (
	"fmt"

	"github.com/fishbit-app/fishbit/internal/constants"
)

type TimeCmd struct {
	Forward float64 `help:"Advance simulated time by N hours." default:"0"`
	Days    int     `help:"Advance simulated time by N days." default:"0"`
	Reset   bool    `help:"Reset to real time."`
}

func (c *TimeCmd) Run(ctx *Context) error {
	if c.Reset {
		ctx.Clock.ResetToReal()
		fmt.Println("Clock reset to real time.")
		return c.show(ctx)
	}

	hours := c.Forward + float64(c.Days)*24
	if hours > 0 {
		ctx.Clock.FastForward(hours)
		fmt.Printf("Advanced clock by %.1f hour(s).\n", hours)

		// Crossing a day boundary means streak and fish state may be stale.
		report := ctx.Checks.Run(ctx.UserID, true)
		printReport(report)
		return nil
	}

	return c.show(ctx)
}

func (c *TimeCmd) show(ctx *Context) error {
	now := ctx.Clock.Now()
	if ctx.Clock.IsSimulated() {
		fmt.Println(warningStyle.Render(fmt.Sprintf("Simulated time: %s (%s ahead)",
			now.Format("2006-01-02 15:04 MST"), ctx.Clock.OffsetString())))
	} else {
		fmt.Printf("Real time: %s\n", now.Format("2006-01-02 15:04 MST"))
	}
	fmt.Printf("Today is %s\n", now.UTC().Format(constants.DateFormat))
	return nil
}
