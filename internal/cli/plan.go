package cli

import (
	"fmt"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/utils"
)

type PlanCmd struct {
	Title    string `arg:"" help:"Task title."`
	Duration int    `help:"Task duration in minutes." default:"45"`
	Role     string `help:"Role the task belongs to." default:"PERSONAL"`
	Date     string `help:"Planning date (YYYY-MM-DD or 'today')." default:"today"`
	DayStart string `help:"Override the day window start (HH:MM)."`
	DayEnd   string `help:"Override the day window end (HH:MM)."`
}

func (cmd *PlanCmd) Run(ctx *Context) error {
	date, err := utils.ParseDate(cmd.Date, time.Local)
	if err != nil {
		return err
	}

	result, err := ctx.Planner.PlanTask(models.PlanRequest{
		Role:        cmd.Role,
		Title:       cmd.Title,
		DurationMin: cmd.Duration,
		Date:        date,
		DayStart:    cmd.DayStart,
		DayEnd:      cmd.DayEnd,
	})
	if err != nil {
		return err
	}

	if result.Status == models.PlanStatusPlanned {
		fmt.Printf("Planned %q %s %s - %s\n",
			result.Title,
			result.PlannedStart.Format(constants.DateFormat),
			result.PlannedStart.Format(constants.TimeFormat),
			result.PlannedEnd.Format(constants.TimeFormat))
	} else {
		fmt.Printf("Could not plan %q: %s\n", result.Title, result.Reason)
	}

	if len(result.UsedIntervals) > 0 {
		fmt.Println("Occupied blocks considered:")
		for _, block := range result.UsedIntervals {
			label := block.Label
			if label == "" {
				label = "(unlabeled)"
			}
			fmt.Printf("  %s - %s  %s\n",
				block.Start.Format(constants.TimeFormat),
				block.End.Format(constants.TimeFormat),
				label)
		}
	}
	return nil
}
