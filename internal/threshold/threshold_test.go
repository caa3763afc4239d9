package threshold

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ThresholdTestSuite struct {
	suite.Suite
}

func TestThresholdSuite(t *testing.T) {
	suite.Run(t, new(ThresholdTestSuite))
}

func (suite *ThresholdTestSuite) analyzer(ladder []types.Interval, levels ...Level) *Analyzer {
	table, err := NewTable(levels)
	suite.Require().NoError(err)

	return NewAnalyzer(ladder, table, logger.NewNopLogger())
}

func rsi(values map[types.Interval]float64) map[types.Interval]optional.Option[float64] {
	out := make(map[types.Interval]optional.Option[float64], len(values))
	for k, v := range values {
		out[k] = optional.Some(v)
	}

	return out
}

var defaultLevels = Thresholds{Buy: 30, Sell: 70, BuyLimit: 70, SellLimit: 30}

func (suite *ThresholdTestSuite) TestBuyOnFinerIntervalGatedByCoarser() {
	a := suite.analyzer(
		[]types.Interval{types.Interval1d, types.Interval1h},
		Level{Interval: types.Interval1d, Thresholds: Thresholds{Buy: 25, Sell: 75, BuyLimit: 70, SellLimit: 30}},
		Level{Interval: types.Interval1h, Thresholds: defaultLevels},
	)

	result := a.Scan(rsi(map[types.Interval]float64{types.Interval1d: 40, types.Interval1h: 25}))

	suite.True(result.Fired())
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.Equal(types.Interval1h, result.Interval)
	suite.Equal(25.0, result.RSI.Unwrap())
	suite.Equal(40.0, result.PreviousRSI.Unwrap())
	suite.Equal([]types.Interval{types.Interval1d, types.Interval1h}, result.Checked)
}

func (suite *ThresholdTestSuite) TestPreviousAboveBuyLimitGatesBuy() {
	a := suite.analyzer(
		[]types.Interval{types.Interval1d, types.Interval1h},
		Level{Interval: types.Interval1d, Thresholds: Thresholds{Buy: 25, Sell: 75, BuyLimit: 70, SellLimit: 30}},
		Level{Interval: types.Interval1h, Thresholds: defaultLevels},
	)

	// 72 is above the 1d buy limit of 70, so even an RSI of 5 must not buy
	for _, value := range []float64{5, 25, 30} {
		result := a.Scan(rsi(map[types.Interval]float64{types.Interval1d: 72, types.Interval1h: value}))
		suite.False(result.Fired(), "rsi %f", value)
		suite.Equal(types.DirectionNone, result.Signal)
		suite.Equal(types.Interval1h, result.Interval)
		suite.Equal(value, result.RSI.Unwrap())
	}
}

func (suite *ThresholdTestSuite) TestSellGatedBySellLimit() {
	a := suite.analyzer(
		[]types.Interval{types.Interval4h, types.Interval15m},
		Level{Interval: types.Interval4h, Thresholds: Thresholds{Buy: 20, Sell: 80, BuyLimit: 70, SellLimit: 50}},
		Level{Interval: types.Interval15m, Thresholds: defaultLevels},
	)

	result := a.Scan(rsi(map[types.Interval]float64{types.Interval4h: 55, types.Interval15m: 75}))
	suite.Equal(types.DirectionSell, result.Signal)
	suite.Equal(types.Interval15m, result.Interval)

	result = a.Scan(rsi(map[types.Interval]float64{types.Interval4h: 45, types.Interval15m: 75}))
	suite.Equal(types.DirectionNone, result.Signal)
}

func (suite *ThresholdTestSuite) TestFirstIntervalHasNoGate() {
	a := suite.analyzer([]types.Interval{types.Interval1d, types.Interval1h},
		Level{Interval: types.Interval1d, Thresholds: defaultLevels},
		Level{Interval: types.Interval1h, Thresholds: defaultLevels},
	)

	result := a.Scan(rsi(map[types.Interval]float64{types.Interval1d: 80, types.Interval1h: 10}))

	suite.Equal(types.DirectionSell, result.Signal)
	suite.Equal(types.Interval1d, result.Interval)
	suite.True(result.PreviousRSI.IsNone())
	suite.Equal([]types.Interval{types.Interval1d}, result.Checked)
}

func (suite *ThresholdTestSuite) TestConfigurationGapIsSkipped() {
	a := suite.analyzer([]types.Interval{types.Interval1d, types.Interval4h, types.Interval1h},
		Level{Interval: types.Interval1d, Thresholds: defaultLevels},
		Level{Interval: types.Interval1h, Thresholds: defaultLevels},
	)

	result := a.Scan(rsi(map[types.Interval]float64{
		types.Interval1d: 50,
		types.Interval4h: 90,
		types.Interval1h: 20,
	}))

	suite.Equal(types.DirectionBuy, result.Signal)
	suite.Equal(types.Interval1h, result.Interval)
	suite.Equal(50.0, result.PreviousRSI.Unwrap())
	suite.Equal([]types.Interval{types.Interval1d, types.Interval1h}, result.Checked)
}

func (suite *ThresholdTestSuite) TestMissingRSIIsSkipped() {
	a := suite.analyzer([]types.Interval{types.Interval1d, types.Interval1h},
		Level{Interval: types.Interval1d, Thresholds: defaultLevels},
		Level{Interval: types.Interval1h, Thresholds: defaultLevels},
	)

	values := rsi(map[types.Interval]float64{types.Interval1h: 20})
	values[types.Interval1d] = optional.None[float64]()

	result := a.Scan(values)
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.True(result.PreviousRSI.IsNone())
}

func (suite *ThresholdTestSuite) TestNoSignalReportsLastChecked() {
	a := suite.analyzer(DefaultLadder(), DefaultLevels()...)

	result := a.Scan(rsi(map[types.Interval]float64{
		types.Interval1d:  50,
		types.Interval4h:  50,
		types.Interval1h:  50,
		types.Interval15m: 50,
		types.Interval5m:  48,
	}))

	suite.False(result.Fired())
	suite.Equal(types.Interval5m, result.Interval)
	suite.Equal(48.0, result.RSI.Unwrap())
	suite.Len(result.Checked, 5)
}

func (suite *ThresholdTestSuite) TestEmptyInput() {
	result := suite.analyzer(DefaultLadder(), DefaultLevels()...).Scan(nil)

	suite.Equal(types.DirectionNone, result.Signal)
	suite.Equal(types.IntervalUnknown, result.Interval)
	suite.True(result.RSI.IsNone())
	suite.Empty(result.Checked)
}

func (suite *ThresholdTestSuite) TestNewTableRejectsUnknownInterval() {
	_, err := NewTable([]Level{{Interval: types.IntervalUnknown, Thresholds: defaultLevels}})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInterval))
}

func (suite *ThresholdTestSuite) TestNewTableRejectsDuplicates() {
	_, err := NewTable([]Level{
		{Interval: types.Interval1h, Thresholds: defaultLevels},
		{Interval: types.Interval1h, Thresholds: defaultLevels},
	})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ThresholdTestSuite) TestTableGet() {
	table, err := NewTable(DefaultLevels())
	suite.Require().NoError(err)

	suite.True(table.Get(types.Interval1h).IsSome())
	suite.True(table.Get(types.Interval1w).IsNone())
	suite.True(table.Get(types.IntervalUnknown).IsNone())
}
