package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/arbiter"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/types"
	argoErrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// ReasonPanic marks the no-signal decision of a symbol whose processing panicked.
const ReasonPanic = "internal_error"

// DefaultLimit is the number of candles requested per interval.
const DefaultLimit = 200

// Fetcher returns candles from the first source that has them.
type Fetcher interface {
	Fetch(ctx context.Context, req provider.FetchRequest) (types.CandleSet, string, bool)
}

// Decider turns a symbol's candles into one decision.
type Decider interface {
	Decide(ctx context.Context, req arbiter.Request) types.SignalDecision
	NoSignal(symbol, reason string, now time.Time) types.SignalDecision
}

// Config holds the per-tick fetch parameters.
type Config struct {
	// Intervals fetched for every symbol
	Intervals []types.Interval
	// Limit is the number of candles requested per interval
	Limit int
	// Overrides are manual directives honored on the first tick only
	Overrides map[string]types.Direction
}

// Scanner processes a batch of symbols sequentially on every tick.
type Scanner struct {
	config  Config
	fetcher Fetcher
	decider Decider
	sinks   []Sink
	metrics *metrics.Recorder
	log     *logger.Logger
	now     func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSinks adds sinks that receive every decision.
func WithSinks(sinks ...Sink) Option {
	return func(s *Scanner) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithMetrics records scan durations and panics.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(s *Scanner) {
		s.metrics = recorder
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// New creates a Scanner.
func New(config Config, fetcher Fetcher, decider Decider, log *logger.Logger, opts ...Option) (*Scanner, error) {
	if fetcher == nil || decider == nil {
		return nil, argoErrors.New(argoErrors.ErrCodeInvalidConfiguration, "scanner requires a fetcher and a decider")
	}

	if len(config.Intervals) == 0 {
		return nil, argoErrors.New(argoErrors.ErrCodeInvalidConfiguration, "scanner requires at least one interval")
	}

	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Scanner{
		config:  config,
		fetcher: fetcher,
		decider: decider,
		log:     log.Named("scanner"),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// RequiredIntervals merges the RSI ladder with the divergence and momentum
// intervals, finest first and without duplicates.
func RequiredIntervals(ladder []types.Interval, config arbiter.Config) []types.Interval {
	seen := make(map[types.Interval]bool)

	var out []types.Interval

	add := func(interval types.Interval) {
		if interval.Valid() && !seen[interval] {
			seen[interval] = true
			out = append(out, interval)
		}
	}

	for _, interval := range ladder {
		add(interval)
	}

	add(config.DivergenceInterval)
	add(config.MomentumInterval)

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// RunOnce processes every symbol in order and returns one decision per symbol.
// A failure or panic while processing a symbol yields a no-signal decision
// for it and never stops the batch.
func (s *Scanner) RunOnce(ctx context.Context, symbols []string) []types.SignalDecision {
	start := time.Now()
	decisions := make([]types.SignalDecision, 0, len(symbols))

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			s.log.Warn("Scan cancelled", zap.Int("remaining", len(symbols)-len(decisions)))

			break
		}

		decision := s.process(ctx, symbol)
		s.publish(ctx, decision)
		decisions = append(decisions, decision)
	}

	s.metrics.RecordScan(time.Since(start))

	return decisions
}

// Run scans immediately and then on every tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context, symbols []string, every time.Duration) error {
	if every <= 0 {
		return argoErrors.Newf(argoErrors.ErrCodeInvalidParameter, "scan interval must be positive, got %s", every)
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	s.RunOnce(ctx, symbols)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scanner stopped")

			return nil
		case <-ticker.C:
			s.RunOnce(ctx, symbols)
		}
	}
}

func (s *Scanner) process(ctx context.Context, symbol string) (decision types.SignalDecision) {
	log := s.log.ForSymbol(symbol)
	now := s.now()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordSymbolPanic()
			log.Error("Recovered from panic while processing symbol", zap.String("panic", fmt.Sprint(r)))

			decision = types.NoSignal(symbol, now, map[string]any{"reason": ReasonPanic, "panic": fmt.Sprint(r)})
		}
	}()

	candles, source, ok := s.fetcher.Fetch(ctx, provider.FetchRequest{
		Symbol:    symbol,
		Intervals: s.config.Intervals,
		Limit:     s.config.Limit,
		Start:     optional.None[time.Time](),
		End:       optional.None[time.Time](),
	})
	if !ok {
		s.metrics.RecordSourceUnavailable()
		log.Warn("No candle source available")

		return s.decider.NoSignal(symbol, arbiter.ReasonSourceUnavailable, now)
	}

	req := arbiter.Request{
		Symbol:   symbol,
		Candles:  candles,
		Source:   source,
		Override: optional.None[types.Direction](),
		Now:      now,
	}

	if override, ok := s.config.Overrides[symbol]; ok {
		req.Override = optional.Some(override)
	}

	return s.decider.Decide(ctx, req)
}

func (s *Scanner) publish(ctx context.Context, decision types.SignalDecision) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, decision); err != nil {
			s.log.Warn("Sink failed to publish decision",
				zap.String("symbol", decision.Symbol),
				zap.Error(err),
			)
		}
	}
}
