package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/config"
	"github.com/bookgrep/bookgrep/internal/currency"
	"github.com/bookgrep/bookgrep/internal/output"
)

// ErrNoMatches signals a successful query with an empty result set; main
// turns it into exit code 1.
var ErrNoMatches = errors.New("no matches")

var (
	flagBook        string
	flagFormat      string
	flagNoHeader    bool
	flagSort        string
	flagReverse     bool
	flagLimit       int
	flagOffset      int
	flagFullAccount bool

	flagCurrencyMode string
	flagBaseCurrency string
	flagAlsoOriginal bool
	flagFxLookback   int
)

var rootCmd = &cobra.Command{
	Use:           "bookgrep",
	Short:         "Grep-like search over GnuCash SQLite books",
	Long:          "Read-only search and reporting over GnuCash SQLite books: substring and regex search across accounts and transactions, date and amount filters, and multi-currency display with point-in-time exchange rates.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagBook, "book", "", "Path to the GnuCash SQLite book (or BOOKGREP_BOOK)")
	pf.StringVar(&flagFormat, "format", "", "Output format: table, csv or json")
	pf.BoolVar(&flagNoHeader, "no-header", false, "Omit the header row")
	pf.StringVar(&flagSort, "sort", "date", "Sort key: date, amount, account or description")
	pf.BoolVar(&flagReverse, "reverse", false, "Reverse sort order")
	pf.IntVar(&flagLimit, "limit", 0, "Limit result rows (0 = no limit)")
	pf.IntVar(&flagOffset, "offset", 0, "Skip result rows")
	pf.BoolVar(&flagFullAccount, "full-account", false, "Show full colon-separated account paths")
}

// addCurrencyFlags attaches the currency display flag group to commands that
// render converted amounts.
func addCurrencyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagCurrencyMode, "currency", "", "Display currency mode: auto, base, split or account")
	f.StringVar(&flagBaseCurrency, "base-currency", "", "Base currency for conversion (overrides config)")
	f.BoolVar(&flagAlsoOriginal, "also-original", false, "Show original amount and currency next to converted values")
	f.IntVar(&flagFxLookback, "fx-lookback", -1, "Exchange rate lookback window in days")
}

func loadConfig() (config.Config, error) {
	return config.Load(config.Overrides{
		Book:           &flagBook,
		BaseCurrency:   &flagBaseCurrency,
		FxLookbackDays: &flagFxLookback,
		CurrencyMode:   &flagCurrencyMode,
		Format:         &flagFormat,
	})
}

func openBook(cfg config.Config) (*book.Book, error) {
	path := cfg.ResolveBookPath()
	if path == "" {
		return nil, fmt.Errorf("no book configured: pass --book, set BOOKGREP_BOOK, or add book to the config file")
	}
	return book.Open(path)
}

func newConverter(bk *book.Book, cfg config.Config) (*currency.Converter, error) {
	base := cfg.Currency.Base
	if base == "" {
		base = bk.Info().DefaultCurrency
	}
	return currency.NewConverter(bk, base, cfg.Currency.FxLookbackDays)
}

func newFormatter(cfg config.Config) *output.Formatter {
	return &output.Formatter{
		Format:     cfg.Output.Format,
		ShowHeader: cfg.Output.Header && !flagNoHeader,
	}
}

func currencyMode(cfg config.Config) currency.Mode {
	m, err := currency.ParseMode(cfg.Currency.Mode)
	if err != nil {
		return currency.ModeAuto
	}
	return m
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

func Execute() error {
	return rootCmd.Execute()
}
