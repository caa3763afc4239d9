package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// ProviderType defines the type of candle source.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
	ProviderOKX     ProviderType = "okx"
	ProviderPolygon ProviderType = "polygon"
)

// FetchRequest describes the candles wanted from a source. Every adapter in a
// failover chain receives the identical request.
type FetchRequest struct {
	Symbol    string
	Intervals []types.Interval
	// Limit is the number of most recent candles per interval
	Limit int
	// Start and End optionally bound the requested range
	Start optional.Option[time.Time]
	End   optional.Option[time.Time]
}

// CandleSource returns OHLCV rows for a symbol from one exchange.
type CandleSource interface {
	// Name identifies the source in logs and decisions.
	Name() string
	// FetchCandles returns candles ascending by time for each requested interval.
	// Intervals that fail are left out; an error is returned only when no
	// interval could be fetched.
	// example:
	// FetchCandles(ctx, FetchRequest{Symbol: "BTCUSDT", Intervals: []types.Interval{types.Interval1h}, Limit: 200})
	FetchCandles(ctx context.Context, req FetchRequest) (types.CandleSet, error)
}

// NewCandleSource creates a candle source from its configuration.
func NewCandleSource(config Config) (CandleSource, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case ProviderBinance:
		return NewBinanceSource(config)
	case ProviderOKX:
		return NewOKXSource(config)
	case ProviderPolygon:
		return NewPolygonSource(config)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported candle source: %s", config.Type)
	}
}

// intervalFetcher loads the candles of a single interval.
type intervalFetcher func(ctx context.Context, symbol string, interval types.Interval, limit int, start, end optional.Option[time.Time]) ([]types.Candle, error)

// fetchEach runs fetch for every requested interval and merges the results.
// Per-interval failures are tolerated as long as one interval succeeds.
func fetchEach(ctx context.Context, source string, req FetchRequest, fetch intervalFetcher) (types.CandleSet, error) {
	if req.Symbol == "" {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "symbol is required")
	}

	if len(req.Intervals) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "at least one interval is required")
	}

	set := make(types.CandleSet, len(req.Intervals))

	var failures []error

	for _, interval := range req.Intervals {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)

			break
		}

		candles, err := fetch(ctx, req.Symbol, interval, req.Limit, req.Start, req.End)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", interval, err))

			continue
		}

		candles = dropInvalid(candles)
		if len(candles) == 0 {
			continue
		}

		set[interval] = trimToLimit(types.SortCandles(candles), req.Limit)
	}

	if len(set) == 0 && len(failures) > 0 {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, errors.Join(failures...), "%s: no interval could be fetched for %s", source, req.Symbol)
	}

	return set, nil
}

// dropInvalid removes rows an exchange returned without a usable close.
func dropInvalid(candles []types.Candle) []types.Candle {
	out := candles[:0]

	for _, c := range candles {
		if c.Close > 0 && !c.Time.IsZero() {
			out = append(out, c)
		}
	}

	return out
}

func trimToLimit(candles []types.Candle, limit int) []types.Candle {
	if limit > 0 && len(candles) > limit {
		return candles[len(candles)-limit:]
	}

	return candles
}
