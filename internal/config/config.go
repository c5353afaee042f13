// Package config loads siteqr settings from an optional file, SITEQR_* environment
// variables and built-in defaults, in increasing order of precedence for env.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"siteqr/internal/utils"
)

const EnvPrefix = "SITEQR"

type Config struct {
	Secret         string       `mapstructure:"secret"`
	SecretFile     string       `mapstructure:"secret_file"`
	ValidityDays   int          `mapstructure:"validity_days"`
	Workers        int          `mapstructure:"workers"`
	MaxTokenLength int          `mapstructure:"max_token_length"`
	Ledger         LedgerConfig `mapstructure:"ledger"`
	Log            LogConfig    `mapstructure:"log"`
	Server         ServerConfig `mapstructure:"server"`
}

type LedgerConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// TODO(config-hot-reload): watch the config file with viper.WatchConfig and swap log level on change.

// Load reads configuration. With an empty path it searches for siteqr.{yaml,json,toml}
// in the working directory and $HOME/.siteqr, and a missing file just means defaults.
// An explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("siteqr")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.siteqr")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("secret", "")
	v.SetDefault("secret_file", "siteqr.secret")
	v.SetDefault("validity_days", 365)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("max_token_length", 4096)
	v.SetDefault("ledger.driver", "json")
	v.SetDefault("ledger.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("server.listen", ":8080")
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if c.ValidityDays <= 0 {
		return fmt.Errorf("validity_days must be positive, got %d", c.ValidityDays)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MaxTokenLength <= 0 {
		return fmt.Errorf("max_token_length must be positive, got %d", c.MaxTokenLength)
	}
	switch c.Ledger.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("ledger.driver must be json or sqlite, got %q", c.Ledger.Driver)
	}
	return nil
}

func (c Config) Validity() time.Duration {
	return time.Duration(c.ValidityDays) * 24 * time.Hour
}

// LedgerPath is ledger.path, or a driver-specific file under the data dir.
func (c Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	name := "ledger.json"
	if c.Ledger.Driver == "sqlite" {
		name = "ledger.db"
	}
	return filepath.Join(utils.GetDataDir(), name)
}
