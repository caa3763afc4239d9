package indicator

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BollingerBandsTestSuite struct {
	suite.Suite
}

func TestBollingerBandsSuite(t *testing.T) {
	suite.Run(t, new(BollingerBandsTestSuite))
}

func (suite *BollingerBandsTestSuite) TestBandsAroundSMA() {
	closes := waveCloses(40)

	upper, middle, lower, err := BollingerBands(closes, 20, 2)
	suite.Require().NoError(err)
	suite.True(middle[18].IsNone())
	suite.True(middle[19].IsSome())

	window := closes[len(closes)-20:]
	mean := 0.0

	for _, c := range window {
		mean += c
	}

	mean /= 20

	variance := 0.0
	for _, c := range window {
		variance += (c - mean) * (c - mean)
	}

	std := math.Sqrt(variance / 20)

	suite.InDelta(mean, middle.Last().Unwrap(), 1e-6)
	suite.InDelta(mean+2*std, upper.Last().Unwrap(), 1e-6)
	suite.InDelta(mean-2*std, lower.Last().Unwrap(), 1e-6)
}

func (suite *BollingerBandsTestSuite) TestInsufficientHistory() {
	upper, middle, lower, err := BollingerBands(waveCloses(5), 20, 2)
	suite.True(errors.IsInsufficientDataError(err))
	suite.True(upper.Last().IsNone())
	suite.True(middle.Last().IsNone())
	suite.True(lower.Last().IsNone())
}

func (suite *BollingerBandsTestSuite) TestInvalidPeriod() {
	_, _, _, err := BollingerBands(waveCloses(40), 1, 2)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}
