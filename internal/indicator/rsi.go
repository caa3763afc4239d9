package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// RSI computes the Relative Strength Index with Wilder smoothing. The first
// value is available at index period. A sequence of period candles or fewer
// returns all None together with an InsufficientDataError.
func RSI(closes []float64, period int) (Values, error) {
	out := noneValues(len(closes))

	if period < 2 {
		return out, errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be at least 2, got %d", period)
	}

	if len(closes) <= period {
		return out, errors.NewInsufficientDataError("rsi", period+1, len(closes))
	}

	raw := talib.Rsi(closes, period)
	for i := period; i < len(raw); i++ {
		out[i] = optional.Some(raw[i])
	}

	return out, nil
}
