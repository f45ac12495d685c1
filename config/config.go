// Package config loads the point of sale configuration from config.yaml
// with viper, materializing a commented default file on first run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyInstanceID       = "instance.id"
	cfgKeyDataDir          = "storage.data_dir"
	cfgKeyCurrencyRounding = "currency.rounding"
	cfgKeyRoundGlobally    = "currency.round_globally"
	cfgKeyPriceDecimals    = "currency.price_decimals"
	cfgKeyBaseTimeoutMS    = "sync.base_timeout_ms"
	cfgKeyInvoiceTimeoutMS = "sync.invoice_timeout_ms"
	cfgKeySearchLimit      = "search.limit"
)

// Defaults applied when config.yaml leaves a key out.
const (
	DefaultDataDir          = ".loungepos-db"
	DefaultCurrencyRounding = 0.01
	DefaultPriceDecimals    = 2
	DefaultBaseTimeoutMS    = 7500
	DefaultInvoiceTimeoutMS = 30000
	DefaultSearchLimit      = 100
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# loungepos configuration

instance:
  # Scopes local records so several registers can share one data directory.
  # Generated on first use when left empty.
  # id: register-1

storage:
  # Where the local database lives (overridable by --data-dir).
  data_dir: .loungepos-db

currency:
  rounding: 0.01
  round_globally: false
  price_decimals: 2

sync:
  # Per-order push timeout; a batch of n orders gets n times this.
  base_timeout_ms: 7500
  invoice_timeout_ms: 30000

search:
  limit: 100
`

// Config is the fully resolved configuration.
type Config struct {
	Instance struct {
		ID string `mapstructure:"id"`
	} `mapstructure:"instance"`
	Storage struct {
		DataDir string `mapstructure:"data_dir"`
	} `mapstructure:"storage"`
	Currency struct {
		Rounding      float64 `mapstructure:"rounding"`
		RoundGlobally bool    `mapstructure:"round_globally"`
		PriceDecimals int     `mapstructure:"price_decimals"`
	} `mapstructure:"currency"`
	Sync struct {
		BaseTimeoutMS    int `mapstructure:"base_timeout_ms"`
		InvoiceTimeoutMS int `mapstructure:"invoice_timeout_ms"`
	} `mapstructure:"sync"`
	Search struct {
		Limit int `mapstructure:"limit"`
	} `mapstructure:"search"`
}

// BaseTimeout returns the per-order push timeout as a duration.
func (c *Config) BaseTimeout() time.Duration {
	return time.Duration(c.Sync.BaseTimeoutMS) * time.Millisecond
}

// InvoiceTimeout returns the invoice round-trip timeout as a duration.
func (c *Config) InvoiceTimeout() time.Duration {
	return time.Duration(c.Sync.InvoiceTimeoutMS) * time.Millisecond
}

// Load reads config.yaml from configDir. The directory and a default
// config.yaml are created on first run; a missing file is not an error.
func Load(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyInstanceID, "")
	v.SetDefault(cfgKeyDataDir, DefaultDataDir)
	v.SetDefault(cfgKeyCurrencyRounding, DefaultCurrencyRounding)
	v.SetDefault(cfgKeyRoundGlobally, false)
	v.SetDefault(cfgKeyPriceDecimals, DefaultPriceDecimals)
	v.SetDefault(cfgKeyBaseTimeoutMS, DefaultBaseTimeoutMS)
	v.SetDefault(cfgKeyInvoiceTimeoutMS, DefaultInvoiceTimeoutMS)
	v.SetDefault(cfgKeySearchLimit, DefaultSearchLimit)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Instance.ID == "" {
		cfg.Instance.ID = newInstanceID()
	}
	return &cfg, nil
}

// newInstanceID generates a register instance id. UUID v7 keeps ids
// sortable by creation time; v4 is the fallback.
func newInstanceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ensureDefaultConfigFile creates config.yaml if it does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
