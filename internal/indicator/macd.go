package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// MACD returns the MACD line (fast EMA - slow EMA) and its signal line (EMA of
// the MACD line). The line starts at index slow-1, the signal line at
// slow-1+signal-1. When the signal line cannot be filled the line is still
// returned and the error reports the shortfall.
func MACD(closes []float64, fast, slow, signal int) (Values, Values, error) {
	line := noneValues(len(closes))
	signalLine := noneValues(len(closes))

	if fast <= 0 || signal <= 0 || slow <= fast {
		return line, signalLine, errors.Newf(errors.ErrCodeInvalidPeriod, "invalid macd periods fast=%d slow=%d signal=%d", fast, slow, signal)
	}

	if len(closes) < slow {
		return line, signalLine, errors.NewInsufficientDataError("macd", slow+signal-1, len(closes))
	}

	fastEMA := talib.Ema(closes, fast)
	slowEMA := talib.Ema(closes, slow)

	start := slow - 1
	raw := make([]float64, 0, len(closes)-start)

	for i := start; i < len(closes); i++ {
		value := fastEMA[i] - slowEMA[i]
		line[i] = optional.Some(value)
		raw = append(raw, value)
	}

	if len(raw) < signal {
		return line, signalLine, errors.NewInsufficientDataError("macd_signal", slow+signal-1, len(closes))
	}

	smoothed := talib.Ema(raw, signal)
	for j := signal - 1; j < len(smoothed); j++ {
		signalLine[start+j] = optional.Some(smoothed[j])
	}

	return line, signalLine, nil
}
