package cli

import (
	"fmt"
	"os"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing data file before initialization."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if c.Force {
		dataPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dataPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing data file: %w", err)
			}
			if err := os.Remove(dataPath); err != nil {
				return fmt.Errorf("failed to delete existing data file: %w", err)
			}
			fmt.Printf("Deleted existing data file at: %s\n", dataPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing data file: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized assistant storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
