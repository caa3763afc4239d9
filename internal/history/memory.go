package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// MemoryJournal keeps entries in insertion order in process memory.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryJournal creates an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(_ context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if entry.Kind == "" {
		entry.Kind = KindSignal
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entry)

	return nil
}

func (j *MemoryJournal) CloseBias(ctx context.Context, symbol string, interval types.Interval, at time.Time) error {
	return j.Append(ctx, closeEntry(symbol, interval, at))
}

func (j *MemoryJournal) OpenBias(_ context.Context, symbol string, interval types.Interval) (Entry, bool, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	latest := -1

	for i, e := range j.entries {
		if e.Symbol != symbol || e.Interval != interval {
			continue
		}

		if latest < 0 || !e.Time.Before(j.entries[latest].Time) {
			latest = i
		}
	}

	if latest < 0 || j.entries[latest].Kind != KindSignal {
		return Entry{}, false, nil
	}

	return j.entries[latest], true, nil
}

func (j *MemoryJournal) Recent(_ context.Context, symbol string, limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []Entry

	for i := len(j.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}

		if symbol == "" || j.entries[i].Symbol == symbol {
			out = append(out, j.entries[i])
		}
	}

	return out, nil
}

func (j *MemoryJournal) Close() error {
	return nil
}
