package cooldown

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger keeps entries in process memory.
type MemoryLedger struct {
	mu      sync.Mutex
	timeout time.Duration
	entries map[Key]time.Time
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger(timeout time.Duration) *MemoryLedger {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &MemoryLedger{
		timeout: timeout,
		entries: make(map[Key]time.Time),
	}
}

func (l *MemoryLedger) Allowed(_ context.Context, key Key, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.entries[key]
	if !ok {
		return true, nil
	}

	return allowedSince(last, now, l.timeout), nil
}

func (l *MemoryLedger) TryAcquire(_ context.Context, key Key, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.entries[key]; ok && !allowedSince(last, now, l.timeout) {
		return false, nil
	}

	l.entries[key] = now

	return true, nil
}

func (l *MemoryLedger) Record(_ context.Context, key Key, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.entries[key]; ok && last.After(now) {
		return nil
	}

	l.entries[key] = now

	return nil
}

func (l *MemoryLedger) Entries(_ context.Context, symbol string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry

	for key, last := range l.entries {
		if symbol != "" && key.Symbol != symbol {
			continue
		}

		out = append(out, Entry{Key: key, LastFired: last})
	}

	sortEntries(out)

	return out, nil
}

func (l *MemoryLedger) Timeout() time.Duration {
	return l.timeout
}

func (l *MemoryLedger) Close() error {
	return nil
}
