package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jackob-K/personal-ai-infra/internal/models"
	"github.com/Jackob-K/personal-ai-infra/internal/proposals"
)

// item is one proposal row plus the decision outcome, if any.
type item struct {
	proposal models.Proposal
	decided  bool
	err      error
}

// Model is the interactive review screen for pending proposals. Approving
// schedules the task and books the calendar; both run through the same
// service the CLI and the HTTP API use.
type Model struct {
	svc      *proposals.Service
	keys     KeyMap
	help     help.Model
	items    []item
	cursor   int
	expanded bool
	deciding bool
	quitting bool
	loadErr  error
}

func NewModel(svc *proposals.Service) Model {
	return Model{
		svc:  svc,
		keys: DefaultKeyMap(),
		help: help.New(),
	}
}

type loadedMsg struct {
	proposals []models.Proposal
	err       error
}

type decidedMsg struct {
	index    int
	proposal models.Proposal
	err      error
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		pending, err := m.svc.List(models.ProposalPending)
		return loadedMsg{proposals: pending, err: err}
	}
}

func (m Model) decideCmd(index int, approve bool) tea.Cmd {
	id := m.items[index].proposal.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		decided, err := m.svc.Decide(ctx, id, proposals.DecideRequest{
			Approve:      approve,
			AutoSchedule: approve,
		})
		return decidedMsg{index: index, proposal: decided, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.items = make([]item, len(msg.proposals))
		for i, p := range msg.proposals {
			m.items[i] = item{proposal: p}
		}
		return m, nil

	case decidedMsg:
		m.deciding = false
		if msg.index < len(m.items) {
			entry := &m.items[msg.index]
			entry.err = msg.err
			if msg.err == nil {
				entry.proposal = msg.proposal
				entry.decided = true
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Details):
		m.expanded = !m.expanded

	case key.Matches(msg, m.keys.Approve):
		if cmd := m.startDecision(true); cmd != nil {
			m.deciding = true
			return m, cmd
		}

	case key.Matches(msg, m.keys.Reject):
		if cmd := m.startDecision(false); cmd != nil {
			m.deciding = true
			return m, cmd
		}
	}

	return m, nil
}

// startDecision returns nil when the cursor row cannot be decided, either
// because there is nothing to decide or the row was already handled.
func (m Model) startDecision(approve bool) tea.Cmd {
	if m.deciding || m.cursor >= len(m.items) || m.items[m.cursor].decided {
		return nil
	}
	return m.decideCmd(m.cursor, approve)
}
