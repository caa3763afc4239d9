package provider

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// parseNumber converts an exchange decimal string into a float.
func parseNumber(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}

	return d.InexactFloat64(), nil
}

// parseOHLCV parses the open, high, low, close and volume strings of one row.
func parseOHLCV(open, high, low, closePrice, volume string) ([5]float64, error) {
	var out [5]float64

	for i, s := range [5]string{open, high, low, closePrice, volume} {
		v, err := parseNumber(s)
		if err != nil {
			return out, err
		}

		out[i] = v
	}

	return out, nil
}
