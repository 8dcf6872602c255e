package tui

import (
	"fmt"
	"strings"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
	"github.com/Jackob-K/personal-ai-infra/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.loadErr != nil {
		return docStyle.Render(rejectedStyle.Render("failed to load proposals: " + m.loadErr.Error()))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Pending proposals"))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(mutedStyle.Render("Inbox is clear. Nothing waiting for a decision."))
		b.WriteString("\n")
		return docStyle.Render(b.String())
	}

	for i, entry := range m.items {
		b.WriteString(m.renderRow(i, entry))
		b.WriteString("\n")
	}

	if m.expanded && m.cursor < len(m.items) {
		b.WriteString("\n")
		b.WriteString(detailStyle.Render(renderDetails(m.items[m.cursor].proposal)))
		b.WriteString("\n")
	}

	if m.deciding {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("working..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return docStyle.Render(b.String())
}

func (m Model) renderRow(i int, entry item) string {
	p := entry.proposal
	line := fmt.Sprintf("[%s] P%d %dm  %s", p.Role, p.Priority, p.DurationMin, p.Subject)

	switch {
	case entry.err != nil:
		line += "  " + rejectedStyle.Render("error: "+entry.err.Error())
	case entry.decided && p.Status == models.ProposalApproved:
		line += "  " + approvedStyle.Render(decisionSuffix(p))
	case entry.decided && p.Status == models.ProposalRejected:
		line += "  " + rejectedStyle.Render("rejected")
	}

	if i == m.cursor {
		return selectedStyle.Render("> " + line)
	}
	return itemStyle.Render("  " + line)
}

func decisionSuffix(p models.Proposal) string {
	if p.PlannedStart == nil {
		return "approved (no free slot)"
	}
	suffix := "approved " + p.PlannedStart.Format(constants.TimeFormat)
	if p.CalendarEventUID != "" {
		suffix += " ✓cal"
	}
	return suffix
}

func renderDetails(p models.Proposal) string {
	lines := []string{
		"From:    " + p.Sender,
		"Account: " + p.AccountName,
		"Summary: " + p.Summary,
	}
	if p.NextStep != "" {
		lines = append(lines, "Next:    "+p.NextStep)
	}
	if p.PlannedStart != nil && p.PlannedEnd != nil {
		lines = append(lines, fmt.Sprintf("Slot:    %s - %s",
			p.PlannedStart.Format("2006-01-02 15:04"),
			p.PlannedEnd.Format(constants.TimeFormat)))
	}
	return strings.Join(lines, "\n")
}
