package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/stretchr/testify/suite"
)

const okxCandlesBody = `{"code":"0","msg":"","data":[
["1704074400000","102","103","101","102.5","30","0","0","0"],
["1704070800000","101","102","100","101.5","20","0","0","1"],
["1704067200000","100","101","99","100.5","10","0","0","1"]]}`

type OKXSourceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	requests []*url.URL
	status   int
	body     string
}

func TestOKXSourceSuite(t *testing.T) {
	suite.Run(t, new(OKXSourceTestSuite))
}

func (suite *OKXSourceTestSuite) SetupTest() {
	suite.requests = nil
	suite.status = http.StatusOK
	suite.body = okxCandlesBody
	suite.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.requests = append(suite.requests, r.URL)
		w.WriteHeader(suite.status)
		_, _ = w.Write([]byte(suite.body))
	}))
}

func (suite *OKXSourceTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *OKXSourceTestSuite) source() CandleSource {
	source, err := NewOKXSource(Config{Type: ProviderOKX, BaseURL: suite.server.URL, Timeout: time.Second})
	suite.Require().NoError(err)

	return source
}

func (suite *OKXSourceTestSuite) TestFetchCandlesReversesRows() {
	set, err := suite.source().FetchCandles(context.Background(), FetchRequest{
		Symbol:    "BTCUSDT",
		Intervals: []types.Interval{types.Interval1h},
		Limit:     3,
	})
	suite.Require().NoError(err)

	candles := set[types.Interval1h]
	suite.Require().Len(candles, 3)
	suite.Equal(100.5, candles[0].Close)
	suite.Equal(102.5, candles[2].Close)
	suite.Equal(time.UnixMilli(1704067200000).UTC(), candles[0].Time)
	suite.Equal(30.0, candles[2].Volume)

	suite.Require().Len(suite.requests, 1)
	suite.Equal(okxCandlesPath, suite.requests[0].Path)
	suite.Equal("BTC-USDT", suite.requests[0].Query().Get("instId"))
	suite.Equal("1H", suite.requests[0].Query().Get("bar"))
	suite.Equal("3", suite.requests[0].Query().Get("limit"))
}

func (suite *OKXSourceTestSuite) TestFetchCandlesWithEndUsesHistory() {
	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := suite.source().FetchCandles(context.Background(), FetchRequest{
		Symbol:    "ETHUSDT",
		Intervals: []types.Interval{types.Interval1d},
		Limit:     500,
		End:       optional.Some(end),
	})
	suite.Require().NoError(err)

	suite.Require().Len(suite.requests, 1)
	suite.Equal(okxHistoryPath, suite.requests[0].Path)
	suite.Equal("1Dutc", suite.requests[0].Query().Get("bar"))
	suite.Equal("100", suite.requests[0].Query().Get("limit"))
	suite.Equal("1704153600000", suite.requests[0].Query().Get("after"))
}

func (suite *OKXSourceTestSuite) TestFetchCandlesUnsupportedInterval() {
	set, err := suite.source().FetchCandles(context.Background(), FetchRequest{
		Symbol:    "BTCUSDT",
		Intervals: []types.Interval{types.Interval8h},
	})
	suite.Error(err)
	suite.Nil(set)
	suite.Empty(suite.requests)
}

func (suite *OKXSourceTestSuite) TestFetchCandlesHTTPError() {
	suite.status = http.StatusTooManyRequests
	suite.body = `{"code":"50011","msg":"Too Many Requests"}`

	set, err := suite.source().FetchCandles(context.Background(), FetchRequest{
		Symbol:    "BTCUSDT",
		Intervals: []types.Interval{types.Interval1h},
	})
	suite.Error(err)
	suite.Nil(set)
	suite.Contains(err.Error(), "429")
}

func (suite *OKXSourceTestSuite) TestDecodeOKXCandlesErrors() {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "api error", body: `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`, want: "51001"},
		{name: "short row", body: `{"code":"0","msg":"","data":[["1704067200000","1"]]}`, want: "fields"},
		{name: "bad timestamp", body: `{"code":"0","msg":"","data":[["x","1","1","1","1","1"]]}`, want: "timestamp"},
		{name: "not json", body: `<html>`, want: "decode"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := decodeOKXCandles([]byte(tc.body))
			suite.Error(err)
			suite.Contains(err.Error(), tc.want)
		})
	}
}

func (suite *OKXSourceTestSuite) TestOKXInstrument() {
	suite.Equal("BTC-USDT", okxInstrument("BTCUSDT"))
	suite.Equal("ETH-USDC", okxInstrument("ethusdc"))
	suite.Equal("ETH-BTC", okxInstrument("ETHBTC"))
	suite.Equal("SOL-USDT", okxInstrument("SOL-USDT"))
}
