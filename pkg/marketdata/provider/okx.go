package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

const (
	okxDefaultBaseURL = "https://www.okx.com"
	okxCandlesPath    = "/api/v5/market/candles"
	okxHistoryPath    = "/api/v5/market/history-candles"
	okxMaxLimit       = 300
	okxHistoryLimit   = 100
)

// okxBars maps intervals onto OKX bar names. OKX has no 8h bar.
var okxBars = map[types.Interval]string{
	types.Interval1m:  "1m",
	types.Interval3m:  "3m",
	types.Interval5m:  "5m",
	types.Interval15m: "15m",
	types.Interval30m: "30m",
	types.Interval1h:  "1H",
	types.Interval2h:  "2H",
	types.Interval4h:  "4H",
	types.Interval6h:  "6Hutc",
	types.Interval12h: "12Hutc",
	types.Interval1d:  "1Dutc",
	types.Interval3d:  "3Dutc",
	types.Interval1w:  "1Wutc",
}

type okxResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// OKXSource reads spot candles from the public OKX v5 REST API.
type OKXSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewOKXSource creates an OKX candle source.
func NewOKXSource(config Config) (CandleSource, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = okxDefaultBaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OKXSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (s *OKXSource) Name() string {
	return string(ProviderOKX)
}

func (s *OKXSource) FetchCandles(ctx context.Context, req FetchRequest) (types.CandleSet, error) {
	return fetchEach(ctx, s.Name(), req, s.fetchInterval)
}

func (s *OKXSource) fetchInterval(ctx context.Context, symbol string, interval types.Interval, limit int, start, end optional.Option[time.Time]) ([]types.Candle, error) {
	bar, ok := okxBars[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval for OKX: %s", interval)
	}

	path := okxCandlesPath
	maxLimit := okxMaxLimit

	query := url.Values{}
	query.Set("instId", okxInstrument(symbol))
	query.Set("bar", bar)

	// after returns rows older than the timestamp, before returns newer rows
	if end.IsSome() {
		path = okxHistoryPath
		maxLimit = okxHistoryLimit

		query.Set("after", strconv.FormatInt(end.Unwrap().UnixMilli(), 10))
	}

	if start.IsSome() {
		query.Set("before", strconv.FormatInt(start.Unwrap().UnixMilli(), 10))
	}

	if limit > 0 {
		query.Set("limit", strconv.Itoa(min(limit, maxLimit)))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build OKX request: %w", err)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles from OKX: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OKX response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OKX returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return decodeOKXCandles(body)
}

// decodeOKXCandles parses an OKX candles payload. Rows arrive newest first.
func decodeOKXCandles(body []byte) ([]types.Candle, error) {
	var payload okxResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode OKX response: %w", err)
	}

	if payload.Code != "0" {
		return nil, fmt.Errorf("OKX error %s: %s", payload.Code, payload.Msg)
	}

	candles := make([]types.Candle, 0, len(payload.Data))

	for i := len(payload.Data) - 1; i >= 0; i-- {
		row := payload.Data[i]
		if len(row) < 6 {
			return nil, fmt.Errorf("OKX candle row has %d fields, want at least 6", len(row))
		}

		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OKX timestamp %q: %w", row[0], err)
		}

		v, err := parseOHLCV(row[1], row[2], row[3], row[4], row[5])
		if err != nil {
			return nil, fmt.Errorf("failed to parse OKX candle at %d: %w", ts, err)
		}

		candles = append(candles, types.Candle{
			Time:   time.UnixMilli(ts).UTC(),
			Open:   v[0],
			High:   v[1],
			Low:    v[2],
			Close:  v[3],
			Volume: v[4],
		})
	}

	return candles, nil
}

// okxInstrument maps BTCUSDT onto OKX's dashed instrument id BTC-USDT.
func okxInstrument(symbol string) string {
	if strings.Contains(symbol, "-") {
		return strings.ToUpper(symbol)
	}

	s := strings.ToUpper(symbol)
	for _, quote := range []string{"USDT", "USDC", "BTC", "ETH", "USD"} {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return strings.TrimSuffix(s, quote) + "-" + quote
		}
	}

	return s
}
