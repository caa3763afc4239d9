package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// binanceMaxLimit is the largest page the klines endpoint accepts.
const binanceMaxLimit = 1000

// BinanceKlinesService is the subset of the go-binance klines builder used by the source.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines requests.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceClientWrapper struct {
	client *binance.Client
}

func (w *binanceClientWrapper) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesServiceWrapper{service: w.client.NewKlinesService()}
}

type binanceKlinesServiceWrapper struct {
	service *binance.KlinesService
}

func (w *binanceKlinesServiceWrapper) Symbol(symbol string) BinanceKlinesService {
	w.service.Symbol(symbol)

	return w
}

func (w *binanceKlinesServiceWrapper) Interval(interval string) BinanceKlinesService {
	w.service.Interval(interval)

	return w
}

func (w *binanceKlinesServiceWrapper) Limit(limit int) BinanceKlinesService {
	w.service.Limit(limit)

	return w
}

func (w *binanceKlinesServiceWrapper) StartTime(startTime int64) BinanceKlinesService {
	w.service.StartTime(startTime)

	return w
}

func (w *binanceKlinesServiceWrapper) EndTime(endTime int64) BinanceKlinesService {
	w.service.EndTime(endTime)

	return w
}

func (w *binanceKlinesServiceWrapper) Do(ctx context.Context) ([]*binance.Kline, error) {
	return w.service.Do(ctx)
}

// BinanceSource reads spot klines from the public Binance REST API.
type BinanceSource struct {
	apiClient BinanceAPIClient
}

// NewBinanceSource creates a Binance candle source. Klines are public so no key is needed.
func NewBinanceSource(config Config) (CandleSource, error) {
	client := binance.NewClient("", "")
	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	if config.Timeout > 0 {
		client.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &BinanceSource{
		apiClient: &binanceClientWrapper{client: client},
	}, nil
}

// NewBinanceSourceWithAPI creates a Binance source around an existing API client.
func NewBinanceSourceWithAPI(apiClient BinanceAPIClient) *BinanceSource {
	return &BinanceSource{apiClient: apiClient}
}

func (s *BinanceSource) Name() string {
	return string(ProviderBinance)
}

func (s *BinanceSource) FetchCandles(ctx context.Context, req FetchRequest) (types.CandleSet, error) {
	return fetchEach(ctx, s.Name(), req, s.fetchInterval)
}

func (s *BinanceSource) fetchInterval(ctx context.Context, symbol string, interval types.Interval, limit int, start, end optional.Option[time.Time]) ([]types.Candle, error) {
	service := s.apiClient.NewKlinesService().
		Symbol(symbol).
		Interval(binanceInterval(interval))

	if limit > 0 {
		service = service.Limit(min(limit, binanceMaxLimit))
	}

	if start.IsSome() {
		service = service.StartTime(start.Unwrap().UnixMilli())
	}

	if end.IsSome() {
		service = service.EndTime(end.Unwrap().UnixMilli())
	}

	klines, err := service.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines from Binance: %w", err)
	}

	return convertKlines(klines)
}

// convertKlines converts Binance kline rows into candles keyed by open time.
func convertKlines(klines []*binance.Kline) ([]types.Candle, error) {
	candles := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		if k == nil {
			continue
		}

		v, err := parseOHLCV(k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, fmt.Errorf("failed to parse kline at %d: %w", k.OpenTime, err)
		}

		candles = append(candles, types.Candle{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   v[0],
			High:   v[1],
			Low:    v[2],
			Close:  v[3],
			Volume: v[4],
		})
	}

	return candles, nil
}

// binanceInterval maps an interval onto Binance's notation, which matches ours.
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func binanceInterval(interval types.Interval) string {
	return interval.String()
}
