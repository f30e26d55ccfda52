package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookgrep/bookgrep/internal/book"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(Overrides{})
	require.NoError(t, err)

	require.Equal(t, "EUR", c.Currency.Base)
	require.Equal(t, 30, c.Currency.FxLookbackDays)
	require.Equal(t, "auto", c.Currency.Mode)
	require.Equal(t, "table", c.Output.Format)
	require.True(t, c.Output.Header)
	require.True(t, c.Cache.Enabled)
	require.NotEmpty(t, c.Cache.Path)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
book = "/books/home.gnucash"

[currency]
base = "USD"
fx_lookback_days = 7

[output]
format = "json"
header = false
`), 0o644))
	t.Setenv("BOOKGREP_CONFIG", path)

	c, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, "/books/home.gnucash", c.Book)
	require.Equal(t, "USD", c.Currency.Base)
	require.Equal(t, 7, c.Currency.FxLookbackDays)
	require.Equal(t, "json", c.Output.Format)
	require.False(t, c.Output.Header)
}

func TestFlagOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[currency]
base = "USD"
`), 0o644))
	t.Setenv("BOOKGREP_CONFIG", path)

	base := "CHF"
	lookback := 5
	format := "csv"
	c, err := Load(Overrides{
		BaseCurrency:   &base,
		FxLookbackDays: &lookback,
		Format:         &format,
	})
	require.NoError(t, err)
	require.Equal(t, "CHF", c.Currency.Base)
	require.Equal(t, 5, c.Currency.FxLookbackDays)
	require.Equal(t, "csv", c.Output.Format)
}

func TestLoadValidation(t *testing.T) {
	t.Run("negative lookback", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[currency]
fx_lookback_days = -1
`), 0o644))
		t.Setenv("BOOKGREP_CONFIG", path)

		_, err := Load(Overrides{})
		require.ErrorIs(t, err, book.ErrInvalidLookback)
	})

	t.Run("unknown currency mode", func(t *testing.T) {
		mode := "bogus"
		_, err := Load(Overrides{CurrencyMode: &mode})
		require.Error(t, err)
	})

	t.Run("unknown output format", func(t *testing.T) {
		format := "yaml"
		_, err := Load(Overrides{Format: &format})
		require.Error(t, err)
	})
}

func TestResolveBookPath(t *testing.T) {
	c := Config{Book: "/books/a.gnucash"}
	require.Equal(t, "/books/a.gnucash", c.ResolveBookPath())

	t.Setenv("BOOKGREP_BOOK", "/books/env.gnucash")
	require.Equal(t, "/books/a.gnucash", c.ResolveBookPath(), "explicit config wins over env")
	require.Equal(t, "/books/env.gnucash", Config{}.ResolveBookPath())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "b.gnucash"), Config{Book: "~/b.gnucash"}.ResolveBookPath())
}
