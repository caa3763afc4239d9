package types

import "github.com/moznion/go-optional"

type IndicatorType string

const (
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeMACDSignal     IndicatorType = "macd_signal"
	IndicatorTypeBollingerUpper IndicatorType = "bb_upper"
	IndicatorTypeBollingerMid   IndicatorType = "bb_middle"
	IndicatorTypeBollingerLower IndicatorType = "bb_lower"
)

// IndicatorSnapshot holds the latest indicator values for one (symbol, interval).
// A None value means the candle history was shorter than the indicator lookback.
type IndicatorSnapshot struct {
	RSI        optional.Option[float64]
	EMA        optional.Option[float64]
	MACD       optional.Option[float64]
	MACDSignal optional.Option[float64]
	BBUpper    optional.Option[float64]
	BBMiddle   optional.Option[float64]
	BBLower    optional.Option[float64]
}

// Values flattens the snapshot into a map for logging, omitting null values.
func (s IndicatorSnapshot) Values() map[IndicatorType]float64 {
	out := make(map[IndicatorType]float64, 7)

	put := func(name IndicatorType, v optional.Option[float64]) {
		if v.IsSome() {
			out[name] = v.Unwrap()
		}
	}

	put(IndicatorTypeRSI, s.RSI)
	put(IndicatorTypeEMA, s.EMA)
	put(IndicatorTypeMACD, s.MACD)
	put(IndicatorTypeMACDSignal, s.MACDSignal)
	put(IndicatorTypeBollingerUpper, s.BBUpper)
	put(IndicatorTypeBollingerMid, s.BBMiddle)
	put(IndicatorTypeBollingerLower, s.BBLower)

	return out
}
