package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// EMA computes the exponential moving average seeded with the simple average
// of the first period closes, alpha = 2/(period+1). The first value is at
// index period-1.
func EMA(closes []float64, period int) (Values, error) {
	out := noneValues(len(closes))

	if period <= 0 {
		return out, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	if len(closes) < period {
		return out, errors.NewInsufficientDataError("ema", period, len(closes))
	}

	raw := talib.Ema(closes, period)
	for i := period - 1; i < len(raw); i++ {
		out[i] = optional.Some(raw[i])
	}

	return out, nil
}
