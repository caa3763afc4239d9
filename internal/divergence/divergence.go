package divergence

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Config holds the divergence sensitivity constants.
type Config struct {
	// BearishRSIDiff is how far the second RSI peak must sit below the first
	BearishRSIDiff float64 `json:"bearish_rsi_diff" yaml:"bearish_rsi_diff" jsonschema:"default=0.5" validate:"gte=0"`
	// BearishPriceFactor is the minimum ratio of the second peak price to the first
	BearishPriceFactor float64 `json:"bearish_price_factor" yaml:"bearish_price_factor" jsonschema:"default=1.001" validate:"gt=0"`
	// BullishRSIDiff is how far the second RSI trough must sit above the first
	BullishRSIDiff float64 `json:"bullish_rsi_diff" yaml:"bullish_rsi_diff" jsonschema:"default=1.5" validate:"gte=0"`
	// BullishPriceFactor is the maximum ratio of the second trough price to the first
	BullishPriceFactor float64 `json:"bullish_price_factor" yaml:"bullish_price_factor" jsonschema:"default=0.998" validate:"gt=0"`
	// RecentThreshold is how long after its candle closed an extremum stays eligible
	RecentThreshold time.Duration `json:"recent_threshold" yaml:"recent_threshold" jsonschema:"type=string,default=30m" validate:"gt=0"`
}

// DefaultConfig returns the default sensitivity constants.
func DefaultConfig() Config {
	return Config{
		BearishRSIDiff:     0.5,
		BearishPriceFactor: 1.001,
		BullishRSIDiff:     1.5,
		BullishPriceFactor: 0.998,
		RecentThreshold:    30 * time.Minute,
	}
}

// Validate checks the constants.
func (c Config) Validate() error {
	if c.BearishRSIDiff < 0 || c.BullishRSIDiff < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "divergence rsi differences must not be negative")
	}

	if c.BearishPriceFactor <= 0 || c.BullishPriceFactor <= 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "divergence price factors must be positive")
	}

	if c.RecentThreshold <= 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "divergence recent threshold must be positive")
	}

	return nil
}

// Detector finds price/RSI divergences. It holds no state between calls.
type Detector struct {
	config Config
}

// NewDetector returns a Detector using config.
func NewDetector(config Config) *Detector {
	return &Detector{config: config}
}

// DetectBearish looks for a higher price high paired with a lower RSI high
// between consecutive RSI peaks and returns the most recent eligible one.
func (d *Detector) DetectBearish(candles []types.Candle, rsi []optional.Option[float64], now time.Time) optional.Option[types.DivergenceEvent] {
	if len(candles) != len(rsi) {
		return optional.None[types.DivergenceEvent]()
	}

	return d.scan(candles, rsi, now, FindPeaks(rsi), types.DivergenceBear, func(prevRSI, currRSI, prevPrice, currPrice float64) bool {
		return currRSI < prevRSI-d.config.BearishRSIDiff && currPrice > prevPrice*d.config.BearishPriceFactor
	})
}

// DetectBullish looks for a lower price low paired with a higher RSI low
// between consecutive RSI troughs and returns the most recent eligible one.
func (d *Detector) DetectBullish(candles []types.Candle, rsi []optional.Option[float64], now time.Time) optional.Option[types.DivergenceEvent] {
	if len(candles) != len(rsi) {
		return optional.None[types.DivergenceEvent]()
	}

	return d.scan(candles, rsi, now, FindTroughs(rsi), types.DivergenceBull, func(prevRSI, currRSI, prevPrice, currPrice float64) bool {
		return currRSI > prevRSI+d.config.BullishRSIDiff && currPrice < prevPrice*d.config.BullishPriceFactor
	})
}

// Detect runs both directions and keeps the event with the later index.
func (d *Detector) Detect(candles []types.Candle, rsi []optional.Option[float64], now time.Time) optional.Option[types.DivergenceEvent] {
	bear := d.DetectBearish(candles, rsi, now)
	bull := d.DetectBullish(candles, rsi, now)

	switch {
	case bear.IsNone():
		return bull
	case bull.IsNone():
		return bear
	case bull.Unwrap().Index > bear.Unwrap().Index:
		return bull
	default:
		return bear
	}
}

func (d *Detector) scan(
	candles []types.Candle,
	rsi []optional.Option[float64],
	now time.Time,
	extrema []int,
	kind types.DivergenceKind,
	diverges func(prevRSI, currRSI, prevPrice, currPrice float64) bool,
) optional.Option[types.DivergenceEvent] {
	// walk newest first so the first hit is the most recent one
	for k := len(extrema) - 1; k >= 1; k-- {
		prev, curr := extrema[k-1], extrema[k]

		if !d.recent(candles, curr, now) {
			continue
		}

		prevRSI, currRSI := rsi[prev].Unwrap(), rsi[curr].Unwrap()
		if diverges(prevRSI, currRSI, candles[prev].Close, candles[curr].Close) {
			return optional.Some(types.DivergenceEvent{
				Kind:  kind,
				Index: curr,
				Price: candles[curr].Close,
				RSI:   currRSI,
				Time:  candles[curr].Time,
			})
		}
	}

	return optional.None[types.DivergenceEvent]()
}

// recent reports whether the candle at i closed no longer than RecentThreshold
// before now. Extrema never sit on the last index, so the close time is always
// the open time of the following candle.
func (d *Detector) recent(candles []types.Candle, i int, now time.Time) bool {
	age := now.Sub(candles[i+1].Time)

	return age >= 0 && age <= d.config.RecentThreshold
}
