package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dashboardTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	require.True(t, ok)

	return next, cmd
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func buyDecision(symbol string) types.SignalDecision {
	return types.SignalDecision{
		Symbol:   symbol,
		Signal:   types.DirectionBuy,
		Mode:     types.ModeRSI,
		Interval: types.Interval1h,
		Source:   "binance",
		Time:     dashboardTime,
		Metadata: map[string]any{"rsi": 24.5},
	}
}

func TestNewModel(t *testing.T) {
	m := NewModel(nil)

	assert.Equal(t, StateDecisions, m.state)
	assert.NotNil(t, m.decisions)
	assert.Empty(t, m.filter)
	assert.Zero(t, m.signals)
}

func TestParseSymbols(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single symbol",
			input:    "BTCUSDT",
			expected: []string{"BTCUSDT"},
		},
		{
			name:     "with spaces and lowercase",
			input:    "btcusdt, ETHUSDT ",
			expected: []string{"BTCUSDT", "ETHUSDT"},
		},
		{
			name:     "only commas",
			input:    ",,,",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSymbols(tt.input))
		})
	}
}

func TestFormatSignal(t *testing.T) {
	assert.Equal(t, "buy ▲", FormatSignal(types.DirectionBuy))
	assert.Equal(t, "sell ▼", FormatSignal(types.DirectionSell))
	assert.Equal(t, "none", FormatSignal(types.DirectionNone))
}

func TestDecisionDetail(t *testing.T) {
	assert.Equal(t, "rsi 24.50", decisionDetail(buyDecision("BTCUSDT")))
	assert.Equal(t, "no_match", decisionDetail(types.NoSignal("BTCUSDT", dashboardTime, map[string]any{"reason": "no_match"})))
	assert.Equal(t, "divergence bull", decisionDetail(types.SignalDecision{
		Signal:   types.DirectionBuy,
		Metadata: map[string]any{"divergence": "bull"},
	}))
}

func TestDecisionMsgUpdatesTable(t *testing.T) {
	m := NewModel(nil)

	m, _ = update(t, m, DecisionMsg{Decision: buyDecision("BTCUSDT")})
	m, _ = update(t, m, DecisionMsg{Decision: types.NoSignal("ETHUSDT", dashboardTime, nil)})

	assert.Equal(t, 1, m.signals)
	require.Len(t, m.decisionTable.Rows(), 2)
	assert.Equal(t, "BTCUSDT", m.decisionTable.Rows()[0][0])
	assert.Equal(t, "buy ▲", m.decisionTable.Rows()[0][1])
	assert.Equal(t, "1h", m.decisionTable.Rows()[0][3])
	assert.Equal(t, "", m.decisionTable.Rows()[1][3])

	// A newer decision replaces the row of its symbol.
	m, _ = update(t, m, DecisionMsg{Decision: types.NoSignal("BTCUSDT", dashboardTime.Add(time.Minute), nil)})
	require.Len(t, m.decisionTable.Rows(), 2)
	assert.Equal(t, "none", m.decisionTable.Rows()[0][1])
}

func TestFilterRestrictsRows(t *testing.T) {
	m := NewModel(nil)
	m, _ = update(t, m, DecisionMsg{Decision: buyDecision("BTCUSDT")})
	m, _ = update(t, m, DecisionMsg{Decision: buyDecision("ETHUSDT")})

	m, _ = update(t, m, keys("/"))
	require.Equal(t, StateFilter, m.state)

	m, _ = update(t, m, keys("ethusdt"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, StateDecisions, m.state)
	assert.Equal(t, []string{"ETHUSDT"}, m.filter)
	require.Len(t, m.decisionTable.Rows(), 1)
	assert.Equal(t, "ETHUSDT", m.decisionTable.Rows()[0][0])

	// Esc on the table clears the filter.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.filter)
	assert.Len(t, m.decisionTable.Rows(), 2)
}

func TestQuitIgnoredWhileFiltering(t *testing.T) {
	m := NewModel(nil)

	m, _ = update(t, m, keys("/"))
	m, _ = update(t, m, keys("q"))

	assert.Equal(t, StateFilter, m.state)
	assert.Equal(t, "q", m.filterInput.Value())
}

func TestDashboardRendersDecisions(t *testing.T) {
	tm := teatest.NewTestModel(t, NewModel(nil), teatest.WithInitialTermSize(120, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Waiting for the first scan"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(DecisionMsg{Decision: buyDecision("BTCUSDT")})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("BTCUSDT")) && bytes.Contains(bts, []byte("1 signals"))
	}, teatest.WithDuration(2*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)
}

func TestDashboardShowsJournal(t *testing.T) {
	journal := history.NewMemoryJournal()
	require.NoError(t, journal.Append(context.Background(), history.FromDecision(buyDecision("BTCUSDT"))))

	tm := teatest.NewTestModel(t, NewModel(journal), teatest.WithInitialTermSize(120, 30))

	tm.Send(DecisionMsg{Decision: buyDecision("BTCUSDT")})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("BTCUSDT"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Journal - BTCUSDT")) && bytes.Contains(bts, []byte("via rsi"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEsc})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Live Decisions"))
	}, teatest.WithDuration(2*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)
}

func TestProgramSinkWithoutProgram(t *testing.T) {
	sink := &programSink{}
	assert.NoError(t, sink.Publish(context.Background(), buyDecision("BTCUSDT")))
}
