package cli

import (
	"errors"
	"fmt"

	errs "github.com/fishbit-app/fishbit/internal/errors"
	"github.com/fishbit-app/fishbit/internal/models"
	"github.com/fishbit-app/fishbit/internal/storage"
	"github.com/fishbit-app/fishbit/internal/vitality"
)

type FishCmd struct {
	List   FishListCmd   `cmd:"" help:"Show your aquarium."`
	Feed   FishFeedCmd   `cmd:"" help:"Feed a fish directly."`
	Revive FishReviveCmd `cmd:"" help:"Revive a dead fish."`
}

type FishListCmd struct {
	Dead bool `help:"Include dead fish."`
}

func (c *FishListCmd) Run(ctx *Context) error {
	fishList, err := ctx.Store.GetAllFish(ctx.UserID)
	if err != nil {
		return err
	}
	if len(fishList) == 0 {
		fmt.Println("Your tank is empty. Add a habit to get your first fish.")
		return nil
	}

	now := ctx.Clock.Now()
	shown := 0
	for _, fish := range fishList {
		if !fish.IsAlive && !c.Dead {
			continue
		}
		shown++
		fmt.Println(renderFish(fish, vitality.ComputeHealth(fish.LastFedAt, now)))
	}
	if shown == 0 {
		fmt.Println("No living fish. Use --dead to see the memorial, or 'fishbit fish revive'.")
	}
	return nil
}

func renderFish(fish models.Fish, health float64) string {
	if !fish.IsAlive {
		line := dimStyle.Render(fmt.Sprintf("%s the %s — deceased", fish.Name, fish.Species))
		if fish.DeathReason != "" {
			line += dimStyle.Render(fmt.Sprintf(" (%s)", fish.DeathReason))
		}
		return line
	}

	status := fmt.Sprintf("%s the %s — health %.0f%%", fish.Name, fish.Species, health)
	switch {
	case health <= 0:
		return dangerStyle.Render(status + " — starving!")
	case vitality.IsCritical(health):
		return warningStyle.Render(status + " — hungry, complete its habit!")
	default:
		return successStyle.Render(status)
	}
}

type FishFeedCmd struct {
	Name string `arg:"" help:"Fish name."`
}

func (c *FishFeedCmd) Run(ctx *Context) error {
	fish, err := ctx.Store.GetFishByName(ctx.UserID, c.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("fish", c.Name)
		}
		return err
	}

	if err := ctx.Vitality.Feed(fish.ID); err != nil {
		if errors.Is(err, vitality.ErrFishDead) {
			return fmt.Errorf("%s is no longer with us. Use 'fishbit fish revive %s' first", fish.Name, fish.Name)
		}
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Fed %s. Health restored to 100%%.", fish.Name)))
	return nil
}

type FishReviveCmd struct {
	Name string `arg:"" help:"Fish name."`
}

func (c *FishReviveCmd) Run(ctx *Context) error {
	fish, err := ctx.Store.GetFishByName(ctx.UserID, c.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("fish", c.Name)
		}
		return err
	}
	if fish.IsAlive {
		fmt.Printf("%s is alive and well.\n", fish.Name)
		return nil
	}

	if err := ctx.Vitality.Revive(fish.ID); err != nil {
		return err
	}
	fmt.Println(accentStyle.Render(fmt.Sprintf("%s is back! Keep its habit going.", fish.Name)))
	return nil
}
