package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// polygonDefaultLimit is used when a request carries neither a limit nor a start.
const polygonDefaultLimit = 500

// PolygonAggsIterator walks the aggregate bars of one ListAggs call.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient lists aggregate bars.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonClientWrapper struct {
	client *polygon.Client
}

func (w *polygonClientWrapper) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return w.client.ListAggs(ctx, params, options...)
}

// PolygonSource reads crypto aggregates from Polygon.io.
type PolygonSource struct {
	apiClient PolygonAPIClient
	now       func() time.Time
}

// NewPolygonSource creates a Polygon candle source. An API key is required.
func NewPolygonSource(config Config) (CandleSource, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}

	var client *polygon.Client
	if config.Timeout > 0 {
		client = polygon.NewWithClient(config.APIKey, &http.Client{Timeout: config.Timeout})
	} else {
		client = polygon.New(config.APIKey)
	}

	return &PolygonSource{
		apiClient: &polygonClientWrapper{client: client},
		now:       time.Now,
	}, nil
}

// NewPolygonSourceWithAPI creates a Polygon source around an existing API client.
func NewPolygonSourceWithAPI(apiClient PolygonAPIClient, now func() time.Time) *PolygonSource {
	if now == nil {
		now = time.Now
	}

	return &PolygonSource{apiClient: apiClient, now: now}
}

func (s *PolygonSource) Name() string {
	return string(ProviderPolygon)
}

func (s *PolygonSource) FetchCandles(ctx context.Context, req FetchRequest) (types.CandleSet, error) {
	return fetchEach(ctx, s.Name(), req, s.fetchInterval)
}

func (s *PolygonSource) fetchInterval(ctx context.Context, symbol string, interval types.Interval, limit int, start, end optional.Option[time.Time]) ([]types.Candle, error) {
	multiplier, timespan, err := polygonTimespan(interval)
	if err != nil {
		return nil, err
	}

	to := s.now()
	if end.IsSome() {
		to = end.Unwrap()
	}

	from := to.Add(-time.Duration(max(limit, polygonDefaultLimit)) * interval.Duration())
	if start.IsSome() {
		from = start.Unwrap()
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     polygonTicker(symbol),
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithLimit(50000)

	iter := s.apiClient.ListAggs(ctx, params)

	var candles []types.Candle

	for iter.Next() {
		agg := iter.Item()
		candles = append(candles, types.Candle{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if iter.Err() != nil {
		return nil, fmt.Errorf("error iterating polygon aggregates: %w", iter.Err())
	}

	return candles, nil
}

// polygonTicker maps an exchange pair such as BTCUSDT onto Polygon's X:BTCUSD.
// Stablecoin quotes are folded into USD since Polygon aggregates fiat pairs.
func polygonTicker(symbol string) string {
	if strings.HasPrefix(symbol, "X:") {
		return symbol
	}

	s := strings.ToUpper(symbol)
	for _, quote := range []string{"USDT", "USDC", "BUSD"} {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return "X:" + strings.TrimSuffix(s, quote) + "USD"
		}
	}

	return "X:" + s
}

// polygonTimespan converts an interval into Polygon's multiplier and timespan.
func polygonTimespan(interval types.Interval) (int, models.Timespan, error) {
	d := interval.Duration()

	switch {
	case !interval.Valid():
		return 0, "", fmt.Errorf("unsupported interval for Polygon: %s", interval)
	case d%(7*24*time.Hour) == 0:
		return int(d / (7 * 24 * time.Hour)), models.Week, nil
	case d%(24*time.Hour) == 0:
		return int(d / (24 * time.Hour)), models.Day, nil
	case d%time.Hour == 0:
		return int(d / time.Hour), models.Hour, nil
	default:
		return int(d / time.Minute), models.Minute, nil
	}
}
