package config

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs.
type Config struct {
	Persistence PersistenceConfig `mapstructure:"persistence" json:"persistence"`
}

// PersistenceConfig selects the backing store for shipped repositories.
type PersistenceConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Persistence: PersistenceConfig{
			Driver: "sqlite",
			DSN:    "file::memory:?cache=shared",
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	switch c.Persistence.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("persistence.driver must be memory or sqlite, got %q", c.Persistence.Driver)
	}
	if c.Persistence.Driver == "sqlite" && c.Persistence.DSN == "" {
		return fmt.Errorf("persistence.dsn is required for the sqlite driver")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, nil for defaults) using cfgx
// helpers. While cfgx.Build still returns zero values, we fallback to a
// lightweight decoder to keep smoke tests meaningful. Once cfgx is fully
// implemented we can drop the fallback.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	var cfg Config
	if input != nil {
		built, err := cfgx.Build(input, settings.buildOpts...)
		if err != nil {
			return Config{}, err
		}
		cfg = built
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Persistence.Driver == "" {
		c.Persistence.Driver = defaults.Persistence.Driver
	}
	if c.Persistence.Driver == "sqlite" && c.Persistence.DSN == "" {
		c.Persistence.DSN = defaults.Persistence.DSN
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
