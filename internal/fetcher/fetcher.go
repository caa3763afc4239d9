package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single source attempt.
const DefaultTimeout = 10 * time.Second

// Attempt is the outcome of asking one source.
type Attempt struct {
	Source   string
	Err      error
	Empty    bool
	Duration time.Duration
}

// Failed reports whether the attempt did not produce candles.
func (a Attempt) Failed() bool {
	return a.Err != nil || a.Empty
}

// Fetcher asks an ordered list of candle sources for the same request until one
// returns candles.
type Fetcher struct {
	sources []provider.CandleSource
	timeout time.Duration
	log     *logger.Logger
	metrics *metrics.Recorder

	mu           sync.Mutex
	lastAttempts []Attempt
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-source timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithMetrics records attempts on the given recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(f *Fetcher) {
		f.metrics = recorder
	}
}

// New creates a failover fetcher over sources in priority order.
func New(sources []provider.CandleSource, log *logger.Logger, opts ...Option) *Fetcher {
	if log == nil {
		log = logger.NewNopLogger()
	}

	f := &Fetcher{
		sources: sources,
		timeout: DefaultTimeout,
		log:     log.Named("fetcher"),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Sources returns the source names in failover order.
func (f *Fetcher) Sources() []string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}

	return names
}

// Fetch returns the candles of the first source that yields a non-empty set,
// together with that source's name. When every source fails it returns
// (nil, "", false); it never returns an error.
func (f *Fetcher) Fetch(ctx context.Context, req provider.FetchRequest) (types.CandleSet, string, bool) {
	attempts := make([]Attempt, 0, len(f.sources))
	defer func() {
		f.mu.Lock()
		f.lastAttempts = attempts
		f.mu.Unlock()
	}()

	for _, source := range f.sources {
		if ctx.Err() != nil {
			break
		}

		set, attempt := f.try(ctx, source, req)
		attempts = append(attempts, attempt)

		if !attempt.Failed() {
			f.metrics.RecordFetchAttempt(attempt.Source, metrics.OutcomeSuccess, attempt.Duration)
			f.log.Debug("Fetched candles",
				zap.String("source", attempt.Source),
				zap.String("symbol", req.Symbol),
				zap.Int("intervals", len(set.Intervals())),
				zap.Duration("duration", attempt.Duration),
			)

			return set, attempt.Source, true
		}

		outcome := metrics.OutcomeEmpty
		if attempt.Err != nil {
			outcome = metrics.OutcomeError
		}

		if _, ok := attempt.Err.(*panicError); ok {
			outcome = metrics.OutcomePanic
		}

		f.metrics.RecordFetchAttempt(attempt.Source, outcome, attempt.Duration)
		f.log.Warn("Candle source failed, trying next",
			zap.String("source", attempt.Source),
			zap.String("symbol", req.Symbol),
			zap.String("outcome", outcome),
			zap.Error(attempt.Err),
		)
	}

	f.metrics.RecordSourceUnavailable()
	f.log.Error("All candle sources failed",
		zap.String("symbol", req.Symbol),
		zap.Int("attempts", len(attempts)),
	)

	return nil, "", false
}

// LastAttempts returns the attempts made by the most recent Fetch.
func (f *Fetcher) LastAttempts() []Attempt {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Attempt, len(f.lastAttempts))
	copy(out, f.lastAttempts)

	return out
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("candle source panicked: %v", e.value)
}

func (f *Fetcher) try(ctx context.Context, source provider.CandleSource, req provider.FetchRequest) (set types.CandleSet, attempt Attempt) {
	attempt.Source = source.Name()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	defer func() {
		attempt.Duration = time.Since(start)

		if r := recover(); r != nil {
			set = nil
			attempt.Err = &panicError{value: r}
		}
	}()

	set, err := source.FetchCandles(ctx, req)
	if err != nil {
		attempt.Err = err

		return nil, attempt
	}

	if !set.NonEmpty() {
		attempt.Empty = true

		return nil, attempt
	}

	return set, attempt
}
