package marketdata

import (
	"fmt"
	"sort"

	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signal/pkg/utils"
)

// ProviderInfo contains metadata about a candle source.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// providerRegistry holds metadata about all supported candle sources.
var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderBinance: {
		Name:         string(provider.ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Spot klines from the public Binance REST API",
		RequiresAuth: false,
	},
	provider.ProviderOKX: {
		Name:         string(provider.ProviderOKX),
		DisplayName:  "OKX",
		Description:  "Spot candles from the public OKX v5 REST API",
		RequiresAuth: false,
	},
	provider.ProviderPolygon: {
		Name:         string(provider.ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "Crypto aggregate bars from Polygon.io",
		RequiresAuth: true,
	},
}

// GetSupportedProviders returns the names of all supported candle sources, sorted.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific candle source.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema of a candle source configuration.
func GetProviderConfigSchema() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	return utils.ToJSONSchema(provider.Config{})
}
