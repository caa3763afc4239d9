package provider

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Config configures one candle source.
type Config struct {
	Type ProviderType `json:"type" yaml:"type" jsonschema:"title=Type,enum=binance,enum=okx,enum=polygon" validate:"required,oneof=binance okx polygon"`
	// BaseURL overrides the exchange REST endpoint
	BaseURL string `json:"base_url,omitempty" yaml:"base_url" jsonschema:"title=Base URL" validate:"omitempty,url"`
	// APIKey is required by polygon only
	APIKey string `json:"api_key,omitempty" yaml:"api_key" jsonschema:"title=API Key" keychain:"true" validate:"required_if=Type polygon"`
	// Timeout bounds the HTTP client of the source
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout" jsonschema:"title=HTTP timeout"`
}

// Validate validates the provider configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid candle source config", err)
	}

	return nil
}
