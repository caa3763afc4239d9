package threshold

import "github.com/rxtech-lab/argo-signal/internal/types"

// DefaultLadder is evaluated from the coarsest interval to the finest.
func DefaultLadder() []types.Interval {
	return []types.Interval{
		types.Interval1d,
		types.Interval4h,
		types.Interval1h,
		types.Interval15m,
		types.Interval5m,
	}
}

// DefaultLevels returns thresholds for every interval of DefaultLadder.
func DefaultLevels() []Level {
	return []Level{
		{Interval: types.Interval1d, Thresholds: Thresholds{Buy: 25, Sell: 75, BuyLimit: 70, SellLimit: 30}},
		{Interval: types.Interval4h, Thresholds: Thresholds{Buy: 28, Sell: 72, BuyLimit: 70, SellLimit: 30}},
		{Interval: types.Interval1h, Thresholds: Thresholds{Buy: 30, Sell: 70, BuyLimit: 65, SellLimit: 35}},
		{Interval: types.Interval15m, Thresholds: Thresholds{Buy: 25, Sell: 75, BuyLimit: 60, SellLimit: 40}},
		{Interval: types.Interval5m, Thresholds: Thresholds{Buy: 20, Sell: 80, BuyLimit: 55, SellLimit: 45}},
	}
}
