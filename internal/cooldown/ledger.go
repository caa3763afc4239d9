package cooldown

import (
	"context"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// DefaultTimeout is the minimum gap between two signals for the same key.
const DefaultTimeout = time.Hour

// Key identifies one cooldown slot.
type Key struct {
	Symbol     string
	Interval   types.Interval
	SignalType types.Direction
}

// Entry is the last time a key fired.
type Entry struct {
	Key
	LastFired time.Time
}

// Ledger remembers when signals last fired so that the same signal is not
// emitted again within the timeout.
type Ledger interface {
	// Allowed reports whether key has never fired or fired at least the timeout before now.
	Allowed(ctx context.Context, key Key, now time.Time) (bool, error)
	// TryAcquire checks the cooldown of key and records now in one atomic step.
	// Of several callers racing on the same key inside the timeout, at most one wins.
	TryAcquire(ctx context.Context, key Key, now time.Time) (bool, error)
	// Record marks key as fired at now. It is visible to the next Allowed call.
	// A timestamp older than the stored one is ignored.
	Record(ctx context.Context, key Key, now time.Time) error
	// Entries lists the entries of symbol, or of every symbol when symbol is empty.
	Entries(ctx context.Context, symbol string) ([]Entry, error)
	// Timeout returns the configured cooldown.
	Timeout() time.Duration
	Close() error
}

// allowedSince is the shared allowed rule.
func allowedSince(lastFired time.Time, now time.Time, timeout time.Duration) bool {
	return now.Sub(lastFired) >= timeout
}

// Export renders entries as {symbol: {interval: {signal_type: RFC3339}}}.
func Export(entries []Entry) map[string]map[string]map[string]string {
	out := make(map[string]map[string]map[string]string)

	for _, e := range entries {
		byInterval, ok := out[e.Symbol]
		if !ok {
			byInterval = make(map[string]map[string]string)
			out[e.Symbol] = byInterval
		}

		bySignal, ok := byInterval[e.Interval.String()]
		if !ok {
			bySignal = make(map[string]string)
			byInterval[e.Interval.String()] = bySignal
		}

		bySignal[string(e.SignalType)] = e.LastFired.UTC().Format(time.RFC3339)
	}

	return out
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}

		if a.Interval != b.Interval {
			return a.Interval < b.Interval
		}

		return a.SignalType < b.SignalType
	})
}
