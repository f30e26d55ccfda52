package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/config"
	"github.com/bookgrep/bookgrep/internal/query"
)

var (
	grepRegex       bool
	grepCase        bool
	grepFields      string
	grepAccount     string
	grepAccountRe   bool
	grepNoSubtree   bool
	grepAfter       string
	grepBefore      string
	grepDateRange   string
	grepAmountRange string
	grepSigned      bool
	grepFullTx      bool
	grepDedupe      string
	grepContext     string
)

var grepCmd = &cobra.Command{
	Use:   "grep TEXT",
	Short: "Search transactions by text",
	Long:  "Search split descriptions, memos and notes for a substring or regex, with optional account, date and amount filters.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		bk, err := openBook(cfg)
		if err != nil {
			return err
		}
		defer bk.Close()

		filter, err := buildFilter(args[0])
		if err != nil {
			return err
		}

		accounts, filterCurrencies, err := resolveAccounts(bk, grepAccount, grepAccountRe, grepCase, !grepNoSubtree)
		if err != nil {
			return err
		}

		guids := make([]string, 0, len(accounts))
		for _, a := range accounts {
			guids = append(guids, a.GUID)
		}
		splits, err := bk.SplitsForAccounts(cmd.Context(), guids)
		if err != nil {
			return err
		}

		matched, notes, err := applyFilter(cmd.Context(), bk, splits, filter)
		if err != nil {
			return err
		}
		if len(matched) == 0 {
			return ErrNoMatches
		}

		if grepFullTx || grepDedupe == "tx" {
			return printTransactions(cmd.Context(), cfg, bk, matched, notes)
		}
		return printSplits(cmd.Context(), cfg, bk, matched, notes, filterCurrencies)
	},
}

// buildFilter assembles the split filter from the shared filter flags.
func buildFilter(text string) (*query.Filter, error) {
	fields, err := query.ParseFields(grepFields)
	if err != nil {
		return nil, err
	}

	filter := &query.Filter{Fields: fields, Signed: grepSigned}
	if text != "" {
		re, err := query.CompileText(text, grepRegex, grepCase)
		if err != nil {
			return nil, err
		}
		filter.Pattern = re
	}

	var after, before, rangeStart, rangeEnd *time.Time
	if grepAfter != "" {
		t, err := query.ParseDate(grepAfter)
		if err != nil {
			return nil, err
		}
		after = &t
	}
	if grepBefore != "" {
		t, err := query.ParseDate(grepBefore)
		if err != nil {
			return nil, err
		}
		before = &t
	}
	if grepDateRange != "" {
		rangeStart, rangeEnd, err = query.ParseDateRange(grepDateRange)
		if err != nil {
			return nil, err
		}
	}
	filter.After, filter.Before = query.ResolveDateWindow(after, before, rangeStart, rangeEnd)

	if grepAmountRange != "" {
		min, max, err := query.ParseAmountRange(grepAmountRange)
		if err != nil {
			return nil, err
		}
		filter.MinAmount = min
		filter.MaxAmount = max
	}
	return filter, nil
}

// resolveAccounts narrows the search to an account pattern, with "did you
// mean" suggestions when nothing matches. An empty pattern selects all
// accounts and no account-currency hint.
func resolveAccounts(bk *book.Book, pattern string, isRegex, caseSensitive, subtree bool) ([]book.Account, []string, error) {
	if pattern == "" {
		return bk.Accounts(), nil, nil
	}
	accounts, err := bk.AccountsByPattern(pattern, isRegex, caseSensitive, subtree)
	if err != nil {
		return nil, nil, err
	}
	if len(accounts) == 0 {
		if suggestions := bk.SuggestAccounts(pattern, 3); len(suggestions) > 0 {
			fmt.Fprintf(os.Stderr, "No accounts match %q. Did you mean: %s?\n",
				pattern, strings.Join(suggestions, ", "))
		}
		return nil, nil, fmt.Errorf("%w: no accounts match %q", book.ErrAccountNotFound, pattern)
	}
	currencies := make([]string, 0, len(accounts))
	for _, a := range accounts {
		currencies = append(currencies, a.Currency)
	}
	return accounts, currencies, nil
}

// applyFilter fetches notes in one batch and keeps the splits that pass.
func applyFilter(ctx context.Context, bk *book.Book, splits []book.Split, filter *query.Filter) ([]book.Split, map[string]string, error) {
	guids := make([]string, 0, len(splits))
	for _, s := range splits {
		guids = append(guids, s.TxGUID)
	}
	notes, err := bk.NotesBatch(ctx, guids)
	if err != nil {
		return nil, nil, err
	}

	matched := splits[:0:0]
	for _, s := range splits {
		if filter.Match(s, notes[s.TxGUID]) {
			matched = append(matched, s)
		}
	}
	return matched, notes, nil
}

func printSplits(ctx context.Context, cfg config.Config, bk *book.Book, matched []book.Split, notes map[string]string, filterCurrencies []string) error {
	conv, err := newConverter(bk, cfg)
	if err != nil {
		return err
	}
	rows, err := query.BuildRows(ctx, matched, notes, conv, query.RowOptions{
		Mode:                    currencyMode(cfg),
		AccountFilterCurrencies: filterCurrencies,
		Signed:                  grepSigned,
		FullAccount:             flagFullAccount,
		AlsoOriginal:            flagAlsoOriginal,
	})
	if err != nil {
		return err
	}

	query.SortRows(rows, flagSort, flagReverse)
	rows = query.Window(rows, flagOffset, flagLimit)

	f := newFormatter(cfg)
	f.IncludeNotes = true
	return f.Splits(os.Stdout, rows)
}

func printTransactions(ctx context.Context, cfg config.Config, bk *book.Book, matched []book.Split, notes map[string]string) error {
	rows, warnings, err := query.BuildTransactions(ctx, matched, bk, notes, query.TxOptions{
		Signed:      grepSigned,
		FullAccount: flagFullAccount,
		Context:     grepContext,
	})
	if err != nil {
		return err
	}
	for _, u := range warnings {
		warnf("transaction %s not perfectly balanced in %s, showing full context", u.TxGUID, u.Currency)
	}

	query.SortTransactions(rows, flagSort, flagReverse)
	rows = query.Window(rows, flagOffset, flagLimit)

	f := newFormatter(cfg)
	f.IncludeNotes = true
	return f.Transactions(os.Stdout, rows)
}

// addFilterFlags attaches the date/amount/sign filter group shared by grep
// and ledger.
func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&grepAfter, "after", "", "Only splits on or after this date (YYYY-MM-DD)")
	f.StringVar(&grepBefore, "before", "", "Only splits strictly before this date (YYYY-MM-DD)")
	f.StringVar(&grepDateRange, "date", "", "Inclusive date range A..B (either side optional)")
	f.StringVar(&grepAmountRange, "amount", "", "Amount range MIN..MAX (either side optional)")
	f.BoolVar(&grepSigned, "signed", false, "Use signed amounts instead of absolute values")
}

func init() {
	f := grepCmd.Flags()
	f.BoolVar(&grepRegex, "regex", false, "Treat TEXT as a regular expression")
	f.BoolVar(&grepCase, "case-sensitive", false, "Match case-sensitively")
	f.StringVar(&grepFields, "in", "desc,memo,notes", "Fields to search: desc, memo, notes")
	f.StringVar(&grepAccount, "account", "", "Restrict to accounts matching this pattern")
	f.BoolVar(&grepAccountRe, "account-regex", false, "Treat the account pattern as a regular expression")
	f.BoolVar(&grepNoSubtree, "no-subtree", false, "Do not include descendants of matched accounts")
	f.BoolVar(&grepFullTx, "full-tx", false, "Show whole transactions instead of split rows")
	f.StringVar(&grepDedupe, "dedupe", "split", "Deduplicate by tx or split")
	f.StringVar(&grepContext, "context", query.ContextFull, "Transaction context: full or balanced")
	addFilterFlags(grepCmd)
	addCurrencyFlags(grepCmd)

	rootCmd.AddCommand(grepCmd)
}
