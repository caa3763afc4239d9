package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Dashboard states.
const (
	StateDecisions = iota
	StateFilter
	StateHistory
)

const historyLimit = 50

// Model is the Bubble Tea model of the live signal dashboard.
type Model struct {
	state         int
	decisionTable table.Model
	filterInput   textinput.Model
	historyList   list.Model
	decisions     map[string]types.SignalDecision
	filter        []string
	journal       history.Journal
	signals       int
	err           error
	width         int
	height        int
}

// NewModel creates the dashboard. A nil journal disables the history view.
func NewModel(journal history.Journal) Model {
	return Model{
		state:         StateDecisions,
		decisionTable: NewDecisionTable(),
		filterInput:   NewFilterInput(),
		historyList:   NewHistoryList(),
		decisions:     make(map[string]types.SignalDecision),
		journal:       journal,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != StateFilter {
				return m, tea.Quit
			}
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.historyList.SetSize(msg.Width, msg.Height-4)
		m.decisionTable.SetWidth(msg.Width)
		m.decisionTable.SetHeight(msg.Height - 6)

		return m, nil

	case DecisionMsg:
		if msg.Decision.IsSignal() {
			m.signals++
		}

		m.decisions[msg.Decision.Symbol] = msg.Decision
		m.decisionTable = UpdateDecisionRows(m.decisionTable, m.decisions, m.filter)

		return m, nil

	case HistoryMsg:
		m.historyList.Title = fmt.Sprintf("Journal - %s", msg.Symbol)
		cmd := m.historyList.SetItems(HistoryItems(msg.Entries))
		m.state = StateHistory

		return m, cmd

	case DashboardErrorMsg:
		m.err = msg.Err

		return m, nil
	}

	switch m.state {
	case StateDecisions:
		return m.updateDecisions(msg)
	case StateFilter:
		return m.updateFilter(msg)
	case StateHistory:
		return m.updateHistory(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateFilter:
		m.filterInput.Blur()
		m.state = StateDecisions
	case StateHistory:
		m.state = StateDecisions
	case StateDecisions:
		m.filter = nil
		m.decisionTable = UpdateDecisionRows(m.decisionTable, m.decisions, nil)
	}

	return m, nil
}

func (m Model) updateDecisions(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "/":
			m.state = StateFilter
			m.filterInput.SetValue(strings.Join(m.filter, ","))
			m.filterInput.Focus()

			return m, textinput.Blink
		case "enter":
			row := m.decisionTable.SelectedRow()
			if len(row) == 0 || m.journal == nil {
				return m, nil
			}

			return m, loadHistory(m.journal, row[0])
		}
	}

	var cmd tea.Cmd
	m.decisionTable, cmd = m.decisionTable.Update(msg)

	return m, cmd
}

func (m Model) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		m.filter = ParseSymbols(m.filterInput.Value())
		m.filterInput.Blur()
		m.decisionTable = UpdateDecisionRows(m.decisionTable, m.decisions, m.filter)
		m.state = StateDecisions

		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)

	return m, cmd
}

func (m Model) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)

	return m, cmd
}

// loadHistory reads the journal of symbol off the update loop.
func loadHistory(journal history.Journal, symbol string) tea.Cmd {
	return func() tea.Msg {
		entries, err := journal.Recent(context.Background(), symbol, historyLimit)
		if err != nil {
			return DashboardErrorMsg{Err: err}
		}

		return HistoryMsg{Symbol: symbol, Entries: entries}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateDecisions:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Argo Signal - Live Decisions (%d signals)", m.signals)))
		s.WriteString("\n\n")

		if len(m.decisions) == 0 {
			s.WriteString("Waiting for the first scan...\n")
		} else {
			s.WriteString(m.decisionTable.View())
		}

		s.WriteString("\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n")
		}

		help := "q: quit | /: filter | Enter: journal"
		if len(m.filter) > 0 {
			help += " | Esc: clear filter (" + strings.Join(m.filter, ", ") + ")"
		}

		s.WriteString(HelpStyle.Render(help))

	case StateFilter:
		s.WriteString(TitleStyle.Render("Filter Symbols"))
		s.WriteString("\n\n")
		s.WriteString("Enter comma-separated symbols, empty for all:\n\n")
		s.WriteString(m.filterInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to apply, Esc to go back"))

	case StateHistory:
		if len(m.historyList.Items()) == 0 {
			s.WriteString(TitleStyle.Render(m.historyList.Title))
			s.WriteString("\n\nNo journal entries yet.\n")
		} else {
			s.WriteString(m.historyList.View())
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Esc: back | q: quit"))
	}

	return s.String()
}
