package types

import (
	"sort"
	"time"
)

// Candle is one OHLCV bar. Time is the bar open time.
type Candle struct {
	Time   time.Time `json:"time" csv:"time"`
	Open   float64   `json:"open" csv:"open"`
	High   float64   `json:"high" csv:"high"`
	Low    float64   `json:"low" csv:"low"`
	Close  float64   `json:"close" csv:"close"`
	Volume float64   `json:"volume" csv:"volume"`
}

// CandleSet holds the candles fetched for one symbol, keyed by interval.
type CandleSet map[Interval][]Candle

// NonEmpty reports whether at least one interval has candles.
func (s CandleSet) NonEmpty() bool {
	for _, candles := range s {
		if len(candles) > 0 {
			return true
		}
	}

	return false
}

// Intervals returns the intervals that have at least one candle, finest first.
func (s CandleSet) Intervals() []Interval {
	out := make([]Interval, 0, len(s))

	for interval, candles := range s {
		if len(candles) > 0 {
			out = append(out, interval)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// SortCandles orders candles ascending by time in place and returns them.
func SortCandles(candles []Candle) []Candle {
	if !sort.SliceIsSorted(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) }) {
		sort.SliceStable(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	}

	return candles
}

// Closes extracts the close prices.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}

	return out
}

// Volumes extracts the traded volumes.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}

	return out
}
