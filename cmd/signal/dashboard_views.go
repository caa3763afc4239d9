package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// entryItem implements list.Item for journal entries.
type entryItem struct {
	entry history.Entry
}

func (i entryItem) Title() string {
	if i.entry.Kind == history.KindClose {
		return fmt.Sprintf("close %s", i.entry.Interval)
	}

	return fmt.Sprintf("%s %s via %s", FormatSignal(i.entry.Signal), i.entry.Interval, i.entry.Mode)
}

func (i entryItem) Description() string {
	desc := i.entry.Time.Format("2006-01-02 15:04:05")
	if i.entry.Source != "" {
		desc += " from " + i.entry.Source
	}

	return desc
}

func (i entryItem) FilterValue() string { return i.entry.Symbol }

// NewHistoryList creates the list showing a symbol's journal.
func NewHistoryList() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(nil, delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// HistoryItems converts journal entries into list items.
func HistoryItems(entries []history.Entry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}

	return items
}

// NewFilterInput creates the text input used to restrict the table to some symbols.
func NewFilterInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "BTCUSDT,ETHUSDT"
	ti.CharLimit = 200
	ti.Width = 50
	ti.Prompt = "> "

	return ti
}

// ParseSymbols parses comma-separated symbols into a slice.
func ParseSymbols(input string) []string {
	parts := strings.Split(input, ",")
	symbols := make([]string, 0, len(parts))

	for _, p := range parts {
		s := strings.TrimSpace(strings.ToUpper(p))
		if s != "" {
			symbols = append(symbols, s)
		}
	}

	return symbols
}

// NewDecisionTable creates the table holding the latest decision per symbol.
func NewDecisionTable() table.Model {
	columns := []table.Column{
		{Title: "Symbol", Width: 12},
		{Title: "Signal", Width: 10},
		{Title: "Mode", Width: 12},
		{Title: "Interval", Width: 9},
		{Title: "Source", Width: 10},
		{Title: "Detail", Width: 24},
		{Title: "Time", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateDecisionRows fills the table with the decisions of the given symbols,
// or of every symbol when filter is empty.
func UpdateDecisionRows(t table.Model, decisions map[string]types.SignalDecision, filter []string) table.Model {
	symbols := make([]string, 0, len(decisions))
	for symbol := range decisions {
		if len(filter) == 0 || contains(filter, symbol) {
			symbols = append(symbols, symbol)
		}
	}

	sort.Strings(symbols)

	rows := make([]table.Row, 0, len(symbols))

	for _, symbol := range symbols {
		d := decisions[symbol]

		interval := ""
		if d.Interval.Valid() {
			interval = d.Interval.String()
		}

		rows = append(rows, table.Row{
			symbol,
			FormatSignal(d.Signal),
			string(d.Mode),
			interval,
			d.Source,
			decisionDetail(d),
			d.Time.Format("15:04:05"),
		})
	}

	t.SetRows(rows)

	return t
}

// decisionDetail picks the most telling metadata value of a decision.
func decisionDetail(d types.SignalDecision) string {
	if !d.IsSignal() {
		if reason, ok := d.Metadata["reason"]; ok {
			return fmt.Sprint(reason)
		}

		return ""
	}

	for _, key := range []string{"rsi", "score", "divergence"} {
		switch v := d.Metadata[key].(type) {
		case float64:
			return fmt.Sprintf("%s %.2f", key, v)
		case nil:
			continue
		default:
			return fmt.Sprintf("%s %v", key, v)
		}
	}

	return ""
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}

	return false
}
