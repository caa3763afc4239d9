package marketdata

import (
	"fmt"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
)

// NewSources builds the ordered candle sources of a failover chain.
// The order of configs is the failover order.
func NewSources(configs []provider.Config) ([]provider.CandleSource, error) {
	if len(configs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "at least one candle source is required")
	}

	seen := make(map[provider.ProviderType]bool, len(configs))
	sources := make([]provider.CandleSource, 0, len(configs))

	for i, config := range configs {
		if seen[config.Type] {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "candle source %s configured twice", config.Type)
		}

		seen[config.Type] = true

		source, err := provider.NewCandleSource(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create candle source #%d (%s): %w", i, config.Type, err)
		}

		sources = append(sources, source)
	}

	return sources, nil
}
