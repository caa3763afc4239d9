package threshold

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// Thresholds are the RSI levels configured for one interval.
type Thresholds struct {
	// Buy fires a buy when the interval RSI is at or below it
	Buy float64 `json:"buy" yaml:"buy" validate:"gte=0,lte=100"`
	// Sell fires a sell when the interval RSI is at or above it
	Sell float64 `json:"sell" yaml:"sell" validate:"gte=0,lte=100"`
	// BuyLimit gates buys on the next interval of the ladder
	BuyLimit float64 `json:"buy_limit" yaml:"buy_limit" validate:"gte=0,lte=100"`
	// SellLimit gates sells on the next interval of the ladder
	SellLimit float64 `json:"sell_limit" yaml:"sell_limit" validate:"gte=0,lte=100"`
}

// Level binds thresholds to an interval in configuration.
type Level struct {
	Interval   types.Interval `json:"interval" yaml:"interval" validate:"required"`
	Thresholds `yaml:",inline"`
}

// Table holds thresholds indexed by interval.
type Table [types.NumIntervals]optional.Option[Thresholds]

// NewTable builds a table from configured levels. A later level for the same
// interval replaces an earlier one.
func NewTable(levels []Level) (Table, error) {
	var table Table

	for _, level := range levels {
		if !level.Interval.Valid() {
			return table, errors.Newf(errors.ErrCodeInvalidInterval, "invalid interval in rsi thresholds: %d", int(level.Interval))
		}

		if table[level.Interval].IsSome() {
			return table, errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate rsi thresholds for %s", level.Interval)
		}

		table[level.Interval] = optional.Some(level.Thresholds)
	}

	return table, nil
}

// Get returns the thresholds of interval, or None when it is not configured.
func (t *Table) Get(interval types.Interval) optional.Option[Thresholds] {
	if !interval.Valid() {
		return optional.None[Thresholds]()
	}

	return t[interval]
}

// Result is the outcome of one ladder scan.
type Result struct {
	Signal   types.Direction
	Interval types.Interval
	// RSI is the value of the fired interval, or of the last checked one
	RSI optional.Option[float64]
	// PreviousRSI is the value of the rung evaluated before Interval
	PreviousRSI optional.Option[float64]
	// Checked lists the intervals that were evaluated, in order
	Checked []types.Interval
}

// Fired reports whether the scan produced a buy or sell.
func (r Result) Fired() bool {
	return r.Signal == types.DirectionBuy || r.Signal == types.DirectionSell
}

// Analyzer walks an interval ladder comparing RSI values against thresholds.
type Analyzer struct {
	ladder []types.Interval
	table  Table
	log    *logger.Logger
}

// NewAnalyzer creates an analyzer for the ladder, evaluated in the given order.
func NewAnalyzer(ladder []types.Interval, table Table, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Analyzer{
		ladder: append([]types.Interval(nil), ladder...),
		table:  table,
		log:    log.Named("threshold"),
	}
}

// Ladder returns the configured interval order.
func (a *Analyzer) Ladder() []types.Interval {
	return append([]types.Interval(nil), a.ladder...)
}

// Scan evaluates the ladder and stops at the first interval that fires.
//
// A buy on an interval needs the previous rung's RSI to be at or below that
// rung's BuyLimit (or no previous rung) and the interval's own RSI to be at or
// below its Buy level. Sells mirror this with SellLimit and Sell. Intervals
// without thresholds or without an RSI value are skipped and do not become the
// previous rung.
func (a *Analyzer) Scan(rsiByInterval map[types.Interval]optional.Option[float64]) Result {
	result := Result{Signal: types.DirectionNone}

	var (
		previousRSI    optional.Option[float64]
		previousLevels optional.Option[Thresholds]
	)

	for _, interval := range a.ladder {
		levels := a.table.Get(interval)
		if levels.IsNone() {
			a.log.Debug("No rsi thresholds configured, skipping interval", zap.String("interval", interval.String()))

			continue
		}

		rsi := rsiByInterval[interval]
		if rsi.IsNone() {
			continue
		}

		result.Checked = append(result.Checked, interval)
		result.Interval = interval
		result.RSI = rsi
		result.PreviousRSI = previousRSI

		if signal := evaluate(rsi.Unwrap(), levels.Unwrap(), previousRSI, previousLevels); signal != types.DirectionNone {
			result.Signal = signal

			return result
		}

		previousRSI = rsi
		previousLevels = levels
	}

	return result
}

func evaluate(rsi float64, levels Thresholds, previousRSI optional.Option[float64], previousLevels optional.Option[Thresholds]) types.Direction {
	buyGate, sellGate := true, true

	if previousRSI.IsSome() && previousLevels.IsSome() {
		prev := previousRSI.Unwrap()
		buyGate = prev <= previousLevels.Unwrap().BuyLimit
		sellGate = prev >= previousLevels.Unwrap().SellLimit
	}

	switch {
	case buyGate && rsi <= levels.Buy:
		return types.DirectionBuy
	case sellGate && rsi >= levels.Sell:
		return types.DirectionSell
	default:
		return types.DirectionNone
	}
}
