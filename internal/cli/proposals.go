package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/proposals"
	"github.com/Jackob-K/personal-ai-infra/internal/utils"
)

type ProposalsListCmd struct {
	Status string `help:"Filter by status: pending, approved, rejected." default:""`
}

func (cmd *ProposalsListCmd) Run(ctx *Context) error {
	status := models.ProposalStatus(cmd.Status)
	switch status {
	case "", models.ProposalPending, models.ProposalApproved, models.ProposalRejected:
	default:
		return fmt.Errorf("unknown status %q", cmd.Status)
	}

	list, err := ctx.Proposals.List(status)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No proposals found.")
		return nil
	}

	for _, p := range list {
		fmt.Printf("%s  [%-8s] [%s] P%d %3dm  %s\n",
			shortID(p.ID), p.Status, p.Role, p.Priority, p.DurationMin, p.Subject)
		if p.PlannedStart != nil && p.PlannedEnd != nil {
			fmt.Printf("          planned %s %s - %s",
				p.PlannedStart.Format(constants.DateFormat),
				p.PlannedStart.Format(constants.TimeFormat),
				p.PlannedEnd.Format(constants.TimeFormat))
			if p.CalendarEventUID != "" {
				fmt.Printf("  (calendar %s)", shortID(p.CalendarEventUID))
			}
			fmt.Println()
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type DecideCmd struct {
	ID       string `arg:"" help:"Proposal id (a unique prefix works)."`
	Reject   bool   `help:"Reject instead of approve."`
	Date     string `help:"Planning date for approval (YYYY-MM-DD or 'today')." default:"today"`
	Duration int    `help:"Override task duration in minutes."`
	Priority int    `help:"Override priority (1-5)."`
	Role     string `help:"Override the role."`
	NoCal    bool   `help:"Skip booking the calendar event."`
	Yes      bool   `help:"Skip the confirmation prompt."`
}

func (cmd *DecideCmd) Run(ctx *Context) error {
	proposal, err := ctx.Proposals.Get(cmd.ID)
	if err != nil {
		return err
	}

	if !cmd.Yes {
		verb := "Approve"
		if cmd.Reject {
			verb = "Reject"
		}
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("%s %q?", verb, proposal.Subject)).
					Description(proposal.Summary).
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	req := proposals.DecideRequest{
		Approve:      !cmd.Reject,
		DurationMin:  cmd.Duration,
		Priority:     cmd.Priority,
		Role:         cmd.Role,
		AutoSchedule: !cmd.Reject && !cmd.NoCal,
	}
	if !cmd.Reject {
		date, err := utils.ParseDate(cmd.Date, time.Local)
		if err != nil {
			return err
		}
		req.PlanningDate = &date
	}

	runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	decided, err := ctx.Proposals.Decide(runCtx, cmd.ID, req)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	switch decided.Status {
	case models.ProposalRejected:
		fmt.Printf("Rejected %q.\n", decided.Subject)
	case models.ProposalApproved:
		if decided.PlannedStart != nil && decided.PlannedEnd != nil {
			fmt.Printf("Approved %q, planned %s %s - %s.\n",
				decided.Subject,
				decided.PlannedStart.Format(constants.DateFormat),
				decided.PlannedStart.Format(constants.TimeFormat),
				decided.PlannedEnd.Format(constants.TimeFormat))
			if decided.CalendarEventUID != "" {
				fmt.Printf("Calendar event booked (%s).\n", shortID(decided.CalendarEventUID))
			}
		} else {
			fmt.Printf("Approved %q, but no free slot was found for the requested day.\n", decided.Subject)
		}
	}
	return nil
}
