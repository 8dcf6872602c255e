package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jackob-K/personal-ai-infra/internal/tui"
)

type ReviewCmd struct{}

func (cmd *ReviewCmd) Run(ctx *Context) error {
	program := tea.NewProgram(tui.NewModel(ctx.Proposals), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()
	return nil
}
