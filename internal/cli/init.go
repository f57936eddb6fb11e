package cli

import (
	"fmt"
	"os"

	"github.com/fishbit-app/fishbit/internal/constants"
	"github.com/fishbit-app/fishbit/internal/models"
)

type InitCmd struct {
	Force bool   `help:"Force reset by deleting the existing database before initialization."`
	Name  string `help:"Display name for the local profile." default:""`
}

func (c *InitCmd) Run(ctx *Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	// Seed the local profile if it does not exist yet.
	if _, err := ctx.Store.GetUser(ctx.UserID); err != nil {
		user := models.User{
			ID:        ctx.UserID,
			Name:      c.Name,
			CreatedAt: ctx.Clock.Now(),
		}
		if err := ctx.Store.SaveUser(user); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
	}
	if c.Name != "" {
		if err := ctx.Store.SetSetting(constants.SettingUserName, c.Name); err != nil {
			return fmt.Errorf("failed to save profile name: %w", err)
		}
	}

	fmt.Printf("Initialized fishbit storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
