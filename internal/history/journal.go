package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Kind tells signal entries from bias closures.
type Kind string

const (
	// KindSignal is an accepted buy or sell
	KindSignal Kind = "signal"
	// KindClose ends the bias opened by earlier signals
	KindClose Kind = "close"
)

// Entry is one journal row.
type Entry struct {
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	Symbol   string          `json:"symbol"`
	Interval types.Interval  `json:"interval"`
	Signal   types.Direction `json:"signal"`
	Mode     types.Mode      `json:"mode"`
	Source   string          `json:"source,omitempty"`
	Time     time.Time       `json:"time"`
}

// FromDecision converts an accepted decision into a signal entry.
func FromDecision(decision types.SignalDecision) Entry {
	id := decision.ID
	if id == "" {
		id = uuid.NewString()
	}

	return Entry{
		ID:       id,
		Kind:     KindSignal,
		Symbol:   decision.Symbol,
		Interval: decision.Interval,
		Signal:   decision.Signal,
		Mode:     decision.Mode,
		Source:   decision.Source,
		Time:     decision.Time,
	}
}

// Journal records accepted signals and answers which bias is still open.
type Journal interface {
	// Append stores an entry. An empty ID is filled in.
	Append(ctx context.Context, entry Entry) error
	// CloseBias ends the open bias of (symbol, interval) at the given time.
	CloseBias(ctx context.Context, symbol string, interval types.Interval, at time.Time) error
	// OpenBias returns the latest signal of (symbol, interval) when no close follows it.
	OpenBias(ctx context.Context, symbol string, interval types.Interval) (Entry, bool, error)
	// Recent returns up to limit entries of symbol, newest first.
	Recent(ctx context.Context, symbol string, limit int) ([]Entry, error)
	Close() error
}

func closeEntry(symbol string, interval types.Interval, at time.Time) Entry {
	return Entry{
		ID:       uuid.NewString(),
		Kind:     KindClose,
		Symbol:   symbol,
		Interval: interval,
		Signal:   types.DirectionNone,
		Mode:     types.ModeLog,
		Time:     at,
	}
}
