package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/travel"
)

type TravelCmd struct {
	Origin      string `arg:"" help:"Trip origin."`
	Destination string `arg:"" help:"Trip destination."`
	Mode        string `help:"Travel mode: transit, driving, walking, bicycling." default:"transit"`
}

func (cmd *TravelCmd) Run(ctx *Context) error {
	runCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	estimate, err := ctx.Travel.Estimate(runCtx, travel.Request{
		Origin:      cmd.Origin,
		Destination: cmd.Destination,
		Mode:        cmd.Mode,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s -> %s (%s): %d minutes\n", cmd.Origin, cmd.Destination, cmd.Mode, estimate.DurationMin)
	fmt.Printf("Source: %s", estimate.Provider)
	if estimate.Detail != "" {
		fmt.Printf(" (%s)", estimate.Detail)
	}
	fmt.Println()
	return nil
}
