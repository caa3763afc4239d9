package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/arbiter"
	"github.com/rxtech-lab/argo-signal/internal/cooldown"
	"github.com/rxtech-lab/argo-signal/internal/divergence"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/momentum"
	"github.com/rxtech-lab/argo-signal/internal/threshold"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signal/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Storage backends for the cooldown ledger and the signal journal.
const (
	BackendMemory = "memory"
	BackendDuckDB = "duckdb"
	BackendRedis  = "redis"
)

// Config is the whole engine configuration.
type Config struct {
	// Engine is a semver constraint the running binary must satisfy
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty" jsonschema:"title=Engine constraint,example=>= 0.3"`
	// Symbols scanned on every tick
	Symbols []string `json:"symbols" yaml:"symbols" jsonschema:"title=Symbols,description=Symbols scanned on every tick e.g. BTCUSDT" validate:"required,min=1,dive,required,uppercase"`
	// Providers are tried in order; the first that returns candles wins
	Providers  []provider.Config `json:"providers" yaml:"providers" jsonschema:"title=Candle sources,description=Ordered candle sources" validate:"required,min=1,dive"`
	Fetch      FetchConfig       `json:"fetch" yaml:"fetch"`
	Indicator  indicator.Config  `json:"indicator" yaml:"indicator"`
	Divergence divergence.Config `json:"divergence" yaml:"divergence"`
	RSI        RSIConfig         `json:"rsi" yaml:"rsi"`
	Momentum   momentum.Config   `json:"momentum" yaml:"momentum"`
	Arbiter    arbiter.Config    `json:"arbiter" yaml:"arbiter"`
	Cooldown   CooldownConfig    `json:"cooldown" yaml:"cooldown"`
	History    HistoryConfig     `json:"history" yaml:"history"`
	// Overrides are manual directives honored on the first tick of a run
	Overrides map[string]types.Direction `json:"overrides,omitempty" yaml:"overrides" jsonschema:"title=Manual overrides" validate:"dive,keys,required,endkeys,oneof=buy sell"`
	Scan      ScanConfig                 `json:"scan" yaml:"scan"`
	Metrics   MetricsConfig              `json:"metrics" yaml:"metrics"`
	Log       LogConfig                  `json:"log" yaml:"log"`
}

// FetchConfig bounds candle requests.
type FetchConfig struct {
	// Limit is the number of candles requested per interval
	Limit int `json:"limit" yaml:"limit" jsonschema:"default=200" validate:"min=1,max=1000"`
	// Timeout bounds one source attempt
	Timeout time.Duration `json:"timeout" yaml:"timeout" jsonschema:"type=string,default=10s" validate:"gt=0"`
}

// RSIConfig is the threshold ladder.
type RSIConfig struct {
	// Ladder is the evaluation order of intervals
	Ladder []types.Interval `json:"ladder" yaml:"ladder" validate:"required,min=1"`
	// Levels holds the thresholds per interval; intervals without levels are skipped
	Levels []threshold.Level `json:"levels" yaml:"levels" validate:"dive"`
}

// CooldownConfig selects the ledger backend.
type CooldownConfig struct {
	Timeout time.Duration `json:"timeout" yaml:"timeout" jsonschema:"type=string,default=1h" validate:"gt=0"`
	Backend string        `json:"backend" yaml:"backend" jsonschema:"enum=memory,enum=duckdb,enum=redis,default=duckdb" validate:"required,oneof=memory duckdb redis"`
	// Path is the DuckDB file shared by the ledger and the journal
	Path  string                `json:"path,omitempty" yaml:"path,omitempty" validate:"required_if=Backend duckdb"`
	Redis *cooldown.RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty" validate:"required_if=Backend redis"`
}

// HistoryConfig selects the journal backend. The DuckDB journal shares the
// cooldown database file.
type HistoryConfig struct {
	Backend string `json:"backend" yaml:"backend" jsonschema:"enum=memory,enum=duckdb,default=duckdb" validate:"required,oneof=memory duckdb"`
	Path    string `json:"path,omitempty" yaml:"path"`
}

// ScanConfig sets the tick period of the scan loop.
type ScanConfig struct {
	Every time.Duration `json:"every" yaml:"every" jsonschema:"type=string,default=5m" validate:"gt=0"`
}

// MetricsConfig enables the HTTP endpoint serving /metrics and /healthz.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr" jsonschema:"default=:9090" validate:"required_if=Enabled true"`
}

// LogConfig sets the zap level.
type LogConfig struct {
	Level string `json:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns a configuration that scans BTCUSDT and ETHUSDT against
// binance with okx as fallback.
func Default() Config {
	return Config{
		Symbols: []string{"BTCUSDT", "ETHUSDT"},
		Providers: []provider.Config{
			{Type: provider.ProviderBinance},
			{Type: provider.ProviderOKX},
		},
		Fetch: FetchConfig{
			Limit:   200,
			Timeout: 10 * time.Second,
		},
		Indicator:  indicator.DefaultConfig(),
		Divergence: divergence.DefaultConfig(),
		RSI: RSIConfig{
			Ladder: threshold.DefaultLadder(),
			Levels: threshold.DefaultLevels(),
		},
		Momentum: momentum.DefaultConfig(),
		Arbiter:  arbiter.DefaultConfig(),
		Cooldown: CooldownConfig{
			Timeout: cooldown.DefaultTimeout,
			Backend: BackendDuckDB,
			Path:    "data/signal.duckdb",
		},
		History: HistoryConfig{
			Backend: BackendDuckDB,
		},
		Overrides: map[string]types.Direction{},
		Scan: ScanConfig{
			Every: 5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks struct tags first and then the rules owned by each component.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckEngineConstraint(version.Version, c.Engine); err != nil {
		return err
	}

	checks := []func() error{
		c.Indicator.Validate,
		c.Divergence.Validate,
		c.Momentum.Validate,
	}

	for _, check := range checks {
		if err := check(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
		}
	}

	for _, interval := range c.RSI.Ladder {
		if !interval.Valid() {
			return errors.New(errors.ErrCodeInvalidInterval, "rsi ladder contains an unknown interval")
		}
	}

	if _, err := threshold.NewTable(c.RSI.Levels); err != nil {
		return err
	}

	if c.History.Backend == BackendDuckDB && c.Cooldown.Backend != BackendDuckDB && c.History.Path == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "history.path is required when the duckdb journal cannot share the cooldown database")
	}

	return nil
}

// JournalPath returns the DuckDB file of the journal.
func (c *Config) JournalPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}

	return c.Cooldown.Path
}

// Schema returns the indented JSON schema of Config.
func Schema() (string, error) {
	return utils.ToIndentedJSONSchema(Config{})
}

// Sample renders the defaults as YAML with a schema modeline.
func Sample(schemaName string) ([]byte, error) {
	cfg := Default()

	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to render sample config", err)
	}

	if schemaName != "" {
		out = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), out...)
	}

	return out, nil
}
