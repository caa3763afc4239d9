package momentum

import (
	"sort"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Config configures the momentum/volume validator.
type Config struct {
	// Windows are the candle counts N compared against the preceding N
	Windows []int `json:"windows" yaml:"windows" validate:"min=1,dive,min=1"`
	// VolumeMultiplier is how much recent volume must exceed previous volume
	VolumeMultiplier float64 `json:"volume_multiplier" yaml:"volume_multiplier" jsonschema:"default=1.5" validate:"gt=0"`
	// SymbolMultipliers override VolumeMultiplier per symbol
	SymbolMultipliers map[string]float64 `json:"symbol_multipliers,omitempty" yaml:"symbol_multipliers" validate:"dive,gt=0"`
}

// DefaultConfig returns windows 3, 6 and 12 with a 1.5 volume multiplier.
func DefaultConfig() Config {
	return Config{
		Windows:           []int{3, 6, 12},
		VolumeMultiplier:  1.5,
		SymbolMultipliers: map[string]float64{},
	}
}

// Validate checks the windows and multipliers.
func (c Config) Validate() error {
	if len(c.Windows) == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "at least one momentum window is required")
	}

	for _, n := range c.Windows {
		if n < 1 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "momentum window must be positive, got %d", n)
		}
	}

	if c.VolumeMultiplier <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "volume multiplier must be positive, got %f", c.VolumeMultiplier)
	}

	for symbol, m := range c.SymbolMultipliers {
		if m <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "volume multiplier for %s must be positive, got %f", symbol, m)
		}
	}

	return nil
}

// Window holds the averages of two adjacent windows of N candles.
type Window struct {
	N              int
	RecentDelta    float64
	PreviousDelta  float64
	RecentVolume   float64
	PreviousVolume float64
}

// Measure computes the mean close-to-close delta and mean volume of the last n
// candles and of the n before them. It needs 2n+1 candles.
func Measure(candles []types.Candle, n int) (Window, bool) {
	if n < 1 || len(candles) < 2*n+1 {
		return Window{}, false
	}

	closes := types.Closes(candles)
	volumes := types.Volumes(candles)

	end := len(candles)
	mid := end - n
	start := mid - n

	w := Window{N: n}
	for i := mid; i < end; i++ {
		w.RecentDelta += closes[i] - closes[i-1]
		w.RecentVolume += volumes[i]
	}

	for i := start; i < mid; i++ {
		w.PreviousDelta += closes[i] - closes[i-1]
		w.PreviousVolume += volumes[i]
	}

	fn := float64(n)
	w.RecentDelta /= fn
	w.PreviousDelta /= fn
	w.RecentVolume /= fn
	w.PreviousVolume /= fn

	return w, true
}

// Validator grades how well recent momentum and volume support a direction.
type Validator struct {
	config Config
}

// NewValidator returns a Validator using config.
func NewValidator(config Config) *Validator {
	if config.SymbolMultipliers == nil {
		config.SymbolMultipliers = map[string]float64{}
	}

	return &Validator{config: config}
}

// Windows returns the configured windows.
func (v *Validator) Windows() []int {
	return append([]int(nil), v.config.Windows...)
}

// Multiplier returns the volume multiplier for symbol.
func (v *Validator) Multiplier(symbol string) float64 {
	if m, ok := v.config.SymbolMultipliers[symbol]; ok {
		return m
	}

	return v.config.VolumeMultiplier
}

// Evaluate grades a single window of n candles.
//
// Strong means recent momentum points in direction and recent volume exceeds
// previous volume times the symbol multiplier. Weak means momentum improved
// toward direction without that volume. Too few candles grade none.
func (v *Validator) Evaluate(symbol string, candles []types.Candle, direction types.Direction, n int) types.Strength {
	w, ok := Measure(candles, n)
	if !ok {
		return types.StrengthNone
	}

	sign := directionSign(direction)
	if sign == 0 {
		return types.StrengthNone
	}

	recent := sign * w.RecentDelta
	previous := sign * w.PreviousDelta

	switch {
	case recent > 0 && w.RecentVolume > w.PreviousVolume*v.Multiplier(symbol):
		return types.StrengthStrong
	case recent > previous:
		return types.StrengthWeak
	default:
		return types.StrengthNone
	}
}

// EvaluateWindows grades every window in ns and combines them into a score
// weighted by N/ΣN. The score maps to strong at 1.5 and weak at 0.5.
func (v *Validator) EvaluateWindows(symbol string, candles []types.Candle, direction types.Direction, ns []int) (types.Strength, float64) {
	total := 0
	for _, n := range ns {
		if n > 0 {
			total += n
		}
	}

	if total == 0 {
		return types.StrengthNone, 0
	}

	score := 0.0

	for _, n := range ns {
		if n <= 0 {
			continue
		}

		score += float64(n) / float64(total) * v.Evaluate(symbol, candles, direction, n).Score()
	}

	return strengthFromScore(score), score
}

// Suggest proposes a direction from the latest MACD against its signal line,
// falling back to the sign of recent momentum over the shortest window.
func (v *Validator) Suggest(candles []types.Candle, snapshot types.IndicatorSnapshot) types.Direction {
	if snapshot.MACD.IsSome() && snapshot.MACDSignal.IsSome() {
		switch macd, signal := snapshot.MACD.Unwrap(), snapshot.MACDSignal.Unwrap(); {
		case macd > signal:
			return types.DirectionBuy
		case macd < signal:
			return types.DirectionSell
		}
	}

	windows := v.Windows()
	sort.Ints(windows)

	for _, n := range windows {
		w, ok := Measure(candles, n)
		if !ok {
			continue
		}

		switch {
		case w.RecentDelta > 0:
			return types.DirectionBuy
		case w.RecentDelta < 0:
			return types.DirectionSell
		default:
			return types.DirectionNone
		}
	}

	return types.DirectionNone
}

func strengthFromScore(score float64) types.Strength {
	switch {
	case score >= 1.5:
		return types.StrengthStrong
	case score >= 0.5:
		return types.StrengthWeak
	default:
		return types.StrengthNone
	}
}

func directionSign(direction types.Direction) float64 {
	switch direction {
	case types.DirectionBuy:
		return 1
	case types.DirectionSell:
		return -1
	default:
		return 0
	}
}
