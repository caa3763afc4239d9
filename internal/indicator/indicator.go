package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// Values is an indicator series aligned index-for-index with the candles it was
// computed from. Indices inside the lookback window are None.
type Values []optional.Option[float64]

// Last returns the most recent value, or None for an empty series.
func (v Values) Last() optional.Option[float64] {
	if len(v) == 0 {
		return optional.None[float64]()
	}

	return v[len(v)-1]
}

func noneValues(n int) Values {
	return make(Values, n)
}

// Series is the full indicator set for one candle sequence.
type Series struct {
	RSI        Values
	EMA        Values
	MACD       Values
	MACDSignal Values
	BBUpper    Values
	BBMiddle   Values
	BBLower    Values
	// Insufficient lists the indicators whose lookback exceeded the history
	Insufficient []types.IndicatorType
}

// Latest collapses the series into the snapshot of the last candle.
func (s Series) Latest() types.IndicatorSnapshot {
	return types.IndicatorSnapshot{
		RSI:        s.RSI.Last(),
		EMA:        s.EMA.Last(),
		MACD:       s.MACD.Last(),
		MACDSignal: s.MACDSignal.Last(),
		BBUpper:    s.BBUpper.Last(),
		BBMiddle:   s.BBMiddle.Last(),
		BBLower:    s.BBLower.Last(),
	}
}

// Config holds the indicator periods.
type Config struct {
	RSIPeriod       int     `json:"rsi_period" yaml:"rsi_period" jsonschema:"default=14" validate:"min=2"`
	EMAPeriod       int     `json:"ema_period" yaml:"ema_period" jsonschema:"default=20" validate:"min=1"`
	MACDFast        int     `json:"macd_fast" yaml:"macd_fast" jsonschema:"default=12" validate:"min=1"`
	MACDSlow        int     `json:"macd_slow" yaml:"macd_slow" jsonschema:"default=26" validate:"min=2"`
	MACDSignal      int     `json:"macd_signal" yaml:"macd_signal" jsonschema:"default=9" validate:"min=1"`
	BollingerPeriod int     `json:"bollinger_period" yaml:"bollinger_period" jsonschema:"default=20" validate:"min=2"`
	BollingerStdDev float64 `json:"bollinger_stddev" yaml:"bollinger_stddev" jsonschema:"default=2" validate:"gt=0"`
}

// DefaultConfig returns RSI 14, EMA 20, MACD 12/26/9 and Bollinger 20/2.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       14,
		EMAPeriod:       20,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
	}
}

// Validate checks the periods.
func (c Config) Validate() error {
	if c.RSIPeriod < 2 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be at least 2, got %d", c.RSIPeriod)
	}

	if c.EMAPeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "ema period must be a positive integer, got %d", c.EMAPeriod)
	}

	if c.MACDFast <= 0 || c.MACDSignal <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "macd periods must be positive, got fast=%d signal=%d", c.MACDFast, c.MACDSignal)
	}

	if c.MACDSlow <= c.MACDFast {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "macd slow period (%d) must exceed fast period (%d)", c.MACDSlow, c.MACDFast)
	}

	if c.BollingerPeriod < 2 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "bollinger period must be at least 2, got %d", c.BollingerPeriod)
	}

	if c.BollingerStdDev <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "bollinger stddev must be positive, got %f", c.BollingerStdDev)
	}

	return nil
}

// Engine computes the indicator set for candle sequences.
type Engine struct {
	config Config
	logger *logger.Logger
}

// NewEngine validates the configuration and returns an Engine.
func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{config: config, logger: log}, nil
}

// Config returns the engine periods.
func (e *Engine) Config() Config {
	return e.config
}

// Compute derives every indicator for candles. It never fails: an empty input
// yields an empty Series and a short input yields None values.
func (e *Engine) Compute(candles []types.Candle) Series {
	if len(candles) == 0 {
		return Series{}
	}

	closes := types.Closes(candles)

	var series Series

	note := func(name types.IndicatorType, err error) {
		if err == nil {
			return
		}

		series.Insufficient = append(series.Insufficient, name)
		e.logger.Debug("Indicator lookback not filled", zap.String("indicator", string(name)), zap.Error(err))
	}

	var err error

	series.RSI, err = RSI(closes, e.config.RSIPeriod)
	note(types.IndicatorTypeRSI, err)

	series.EMA, err = EMA(closes, e.config.EMAPeriod)
	note(types.IndicatorTypeEMA, err)

	series.MACD, series.MACDSignal, err = MACD(closes, e.config.MACDFast, e.config.MACDSlow, e.config.MACDSignal)
	note(types.IndicatorTypeMACD, err)

	series.BBUpper, series.BBMiddle, series.BBLower, err = BollingerBands(closes, e.config.BollingerPeriod, e.config.BollingerStdDev)
	note(types.IndicatorTypeBollingerMid, err)

	return series
}

// RSI computes only the RSI series for candles.
func (e *Engine) RSI(candles []types.Candle) Values {
	values, _ := RSI(types.Closes(candles), e.config.RSIPeriod)

	return values
}
