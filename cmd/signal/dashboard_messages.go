package main

import (
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// DecisionMsg carries a decision from the scanner.
type DecisionMsg struct {
	Decision types.SignalDecision
}

// HistoryMsg carries the journal entries of one symbol.
type HistoryMsg struct {
	Symbol  string
	Entries []history.Entry
}

// DashboardErrorMsg reports a failure to show in the footer.
type DashboardErrorMsg struct {
	Err error
}
