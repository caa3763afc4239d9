package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// BollingerBands returns the upper, middle (SMA) and lower bands at
// stdDev population standard deviations. Values start at index period-1.
func BollingerBands(closes []float64, period int, stdDev float64) (Values, Values, Values, error) {
	upper := noneValues(len(closes))
	middle := noneValues(len(closes))
	lower := noneValues(len(closes))

	if period < 2 {
		return upper, middle, lower, errors.Newf(errors.ErrCodeInvalidPeriod, "bollinger period must be at least 2, got %d", period)
	}

	if len(closes) < period {
		return upper, middle, lower, errors.NewInsufficientDataError("bollinger_bands", period, len(closes))
	}

	rawUpper, rawMiddle, rawLower := talib.BBands(closes, period, stdDev, stdDev, talib.SMA)
	for i := period - 1; i < len(closes); i++ {
		upper[i] = optional.Some(rawUpper[i])
		middle[i] = optional.Some(rawMiddle[i])
		lower[i] = optional.Some(rawLower[i])
	}

	return upper, middle, lower, nil
}
