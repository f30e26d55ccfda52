// Package config loads bookgrep configuration with the precedence
// defaults < config file < environment < command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/currency"
	"github.com/bookgrep/bookgrep/internal/output"
)

// Config holds application configuration.
type Config struct {
	Book     string
	Currency CurrencyConfig
	Output   OutputConfig
	Cache    CacheConfig
}

// CurrencyConfig holds conversion settings.
type CurrencyConfig struct {
	Base           string
	FxLookbackDays int `mapstructure:"fx_lookback_days"`
	Mode           string
}

// OutputConfig holds presentation settings.
type OutputConfig struct {
	Format string
	Header bool
}

// CacheConfig holds sidecar cache settings.
type CacheConfig struct {
	Enabled bool
	Path    string
}

// Overrides carries command-line flag values; nil means "not set".
type Overrides struct {
	Book           *string
	BaseCurrency   *string
	FxLookbackDays *int
	CurrencyMode   *string
	Format         *string
	Header         *bool
}

// Load reads configuration from file and env. Env var overrides use prefix
// BOOKGREP_; the config file is TOML at ~/.config/bookgrep/config.toml unless
// BOOKGREP_CONFIG points elsewhere.
func Load(over Overrides) (Config, error) {
	v := viper.New()

	v.SetDefault("book", "")
	v.SetDefault("currency.base", "EUR")
	v.SetDefault("currency.fx_lookback_days", currency.DefaultLookbackDays)
	v.SetDefault("currency.mode", string(currency.ModeAuto))
	v.SetDefault("output.format", output.FormatTable)
	v.SetDefault("output.header", true)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", defaultCachePath())

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("BOOKGREP_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(configHome(), "bookgrep"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BOOKGREP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file is optional.
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if over.Book != nil && *over.Book != "" {
		c.Book = *over.Book
	}
	if over.BaseCurrency != nil && *over.BaseCurrency != "" {
		c.Currency.Base = *over.BaseCurrency
	}
	if over.FxLookbackDays != nil && *over.FxLookbackDays >= 0 {
		c.Currency.FxLookbackDays = *over.FxLookbackDays
	}
	if over.CurrencyMode != nil && *over.CurrencyMode != "" {
		c.Currency.Mode = *over.CurrencyMode
	}
	if over.Format != nil && *over.Format != "" {
		c.Output.Format = *over.Format
	}
	if over.Header != nil {
		c.Output.Header = *over.Header
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Currency.FxLookbackDays < 0 {
		return fmt.Errorf("%w: %d", book.ErrInvalidLookback, c.Currency.FxLookbackDays)
	}
	if _, err := currency.ParseMode(c.Currency.Mode); err != nil {
		return err
	}
	if !output.ValidFormat(c.Output.Format) {
		return fmt.Errorf("invalid output format %q (want table, csv or json)", c.Output.Format)
	}
	return nil
}

// ResolveBookPath returns the configured book path, falling back to the
// BOOKGREP_BOOK environment variable. Empty when no book is configured.
func (c Config) ResolveBookPath() string {
	if c.Book != "" {
		return expandHome(c.Book)
	}
	if env := os.Getenv("BOOKGREP_BOOK"); env != "" {
		return expandHome(env)
	}
	return ""
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func configHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

func defaultCachePath() string {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "bookgrep-cache.sqlite")
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "bookgrep", "cache.sqlite")
}
