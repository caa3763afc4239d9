package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	// klinesByInterval holds the rows returned for each Binance interval
	klinesByInterval map[string][]*binance.Kline
	errByInterval    map[string]error
	requests         []*mockBinanceKlinesService
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	service := &mockBinanceKlinesService{client: m}
	m.requests = append(m.requests, service)

	return service
}

type mockBinanceKlinesService struct {
	client   *mockBinanceAPIClient
	symbol   string
	interval string
	limit    int
	start    int64
	end      int64
}

func (m *mockBinanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	m.symbol = symbol

	return m
}

func (m *mockBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	m.interval = interval

	return m
}

func (m *mockBinanceKlinesService) Limit(limit int) BinanceKlinesService {
	m.limit = limit

	return m
}

func (m *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	m.start = startTime

	return m
}

func (m *mockBinanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	m.end = endTime

	return m
}

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	if err := m.client.errByInterval[m.interval]; err != nil {
		return nil, err
	}

	return m.client.klinesByInterval[m.interval], nil
}

func kline(openTime int64, closePrice string) *binance.Kline {
	return &binance.Kline{
		OpenTime:  openTime,
		Open:      "100.0",
		High:      "110.5",
		Low:       "95.25",
		Close:     closePrice,
		Volume:    "12.5",
		CloseTime: openTime + 59999,
	}
}

type BinanceSourceTestSuite struct {
	suite.Suite
}

func TestBinanceSourceSuite(t *testing.T) {
	suite.Run(t, new(BinanceSourceTestSuite))
}

func (suite *BinanceSourceTestSuite) TestNewBinanceSource() {
	source, err := NewBinanceSource(Config{Type: ProviderBinance})
	suite.Require().NoError(err)
	suite.Equal("binance", source.Name())

	binanceSource, ok := source.(*BinanceSource)
	suite.True(ok)

	_, ok = binanceSource.apiClient.(*binanceClientWrapper)
	suite.True(ok, "apiClient should be a binanceClientWrapper")
}

func (suite *BinanceSourceTestSuite) TestFetchCandles() {
	api := &mockBinanceAPIClient{
		klinesByInterval: map[string][]*binance.Kline{
			"1h": {kline(1704070800000, "101"), kline(1704067200000, "100")},
			"5m": {kline(1704067200000, "99.5")},
		},
	}
	source := NewBinanceSourceWithAPI(api)

	set, err := source.FetchCandles(context.Background(), FetchRequest{
		Symbol:    "BTCUSDT",
		Intervals: []types.Interval{types.Interval5m, types.Interval1h},
		Limit:     200,
	})
	suite.Require().NoError(err)

	suite.Require().Len(set[types.Interval1h], 2)
	suite.True(set[types.Interval1h][0].Time.Before(set[types.Interval1h][1].Time), "candles must be ascending")
	suite.Equal(100.0, set[types.Interval1h][0].Close)
	suite.Equal(110.5, set[types.Interval1h][0].High)
	suite.Equal(95.25, set[types.Interval1h][0].Low)
	suite.Equal(12.5, set[types.Interval1h][0].Volume)
	suite.Equal(time.UnixMilli(1704067200000).UTC(), set[types.Interval1h][0].Time)
	suite.Len(set[types.Interval5m], 1)

	suite.Require().Len(api.requests, 2)
	suite.Equal("BTCUSDT", api.requests[0].symbol)
	suite.Equal("5m", api.requests[0].interval)
	suite.Equal(200, api.requests[0].limit)
}

func (suite *BinanceSourceTestSuite) TestFetchCandlesCapsLimitAndPassesRange() {
	api := &mockBinanceAPIClient{
		klinesByInterval: map[string][]*binance.Kline{"1d": {kline(1704067200000, "1")}},
	}
	source := NewBinanceSourceWithAPI(api)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := source.FetchCandles(context.Background(), FetchRequest{
		Symbol:    "ETHUSDT",
		Intervals: []types.Interval{types.Interval1d},
		Limit:     5000,
		Start:     optional.Some(start),
		End:       optional.Some(end),
	})
	suite.Require().NoError(err)

	suite.Require().Len(api.requests, 1)
	suite.Equal(binanceMaxLimit, api.requests[0].limit)
	suite.Equal(start.UnixMilli(), api.requests[0].start)
	suite.Equal(end.UnixMilli(), api.requests[0].end)
}

func (suite *BinanceSourceTestSuite) TestFetchCandlesPartialFailure() {
	api := &mockBinanceAPIClient{
		klinesByInterval: map[string][]*binance.Kline{"1h": {kline(1704067200000, "100")}},
		errByInterval:    map[string]error{"4h": errors.New("rate limited")},
	}
	source := NewBinanceSourceWithAPI(api)

	set, err := source.FetchCandles(context.Background(), FetchRequest{
		Symbol:    "BTCUSDT",
		Intervals: []types.Interval{types.Interval1h, types.Interval4h},
	})
	suite.Require().NoError(err)
	suite.Len(set[types.Interval1h], 1)
	suite.NotContains(set, types.Interval4h)
}

func (suite *BinanceSourceTestSuite) TestFetchCandlesAllFail() {
	api := &mockBinanceAPIClient{
		errByInterval: map[string]error{"1h": errors.New("connection refused")},
	}
	source := NewBinanceSourceWithAPI(api)

	set, err := source.FetchCandles(context.Background(), FetchRequest{
		Symbol:    "BTCUSDT",
		Intervals: []types.Interval{types.Interval1h},
	})
	suite.Error(err)
	suite.Nil(set)
	suite.Contains(err.Error(), "connection refused")
}

func (suite *BinanceSourceTestSuite) TestConvertKlines() {
	candles, err := convertKlines([]*binance.Kline{kline(1704067200000, "42000.12"), nil})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 1)
	suite.InDelta(42000.12, candles[0].Close, 1e-9)
}

func (suite *BinanceSourceTestSuite) TestConvertKlinesWithInvalidNumbers() {
	bad := kline(1704067200000, "xyz")

	_, err := convertKlines([]*binance.Kline{bad})
	suite.Error(err)
	suite.Contains(err.Error(), "xyz")
}

func (suite *BinanceSourceTestSuite) TestBinanceInterval() {
	suite.Equal("1m", binanceInterval(types.Interval1m))
	suite.Equal("12h", binanceInterval(types.Interval12h))
	suite.Equal("3d", binanceInterval(types.Interval3d))
	suite.Equal("1w", binanceInterval(types.Interval1w))
}
