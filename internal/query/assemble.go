package query

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bookgrep/bookgrep/internal/balance"
	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/currency"
	"github.com/bookgrep/bookgrep/internal/output"
)

// Context modes for full-transaction views.
const (
	ContextFull     = "full"
	ContextBalanced = "balanced"
)

// RowOptions controls split-row assembly.
type RowOptions struct {
	Mode                    currency.Mode
	AccountFilterCurrencies []string
	Signed                  bool
	FullAccount             bool
	AlsoOriginal            bool
}

// AccountName returns the full colon path or just the final segment.
func AccountName(fullName string, full bool) string {
	if full {
		return fullName
	}
	if i := lastColon(fullName); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}

func lastColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}

// BuildRows converts splits to display rows: the display currency is resolved
// once for the whole batch, then each amount is converted at its
// transaction's post date. Rows whose rate is unavailable keep their original
// currency.
func BuildRows(ctx context.Context, splits []book.Split, notes map[string]string, conv *currency.Converter, opts RowOptions) ([]output.SplitRow, error) {
	splitCurrencies := make([]string, 0, len(splits))
	for _, s := range splits {
		splitCurrencies = append(splitCurrencies, s.Currency)
	}
	target, haveTarget := currency.ResolveDisplayCurrency(
		opts.Mode, splitCurrencies, opts.AccountFilterCurrencies, conv.Base())

	rows := make([]output.SplitRow, 0, len(splits))
	for _, s := range splits {
		value := s.Value
		if !opts.Signed {
			value = value.Abs()
		}

		displayAmount := value
		displayCurrency := s.Currency
		var fxRate *decimal.Decimal

		if haveTarget && target != s.Currency {
			result, err := conv.Convert(ctx, value, s.Currency, target, s.PostDate)
			if err != nil {
				return nil, err
			}
			displayAmount = result.Amount
			displayCurrency = result.Currency
			if result.Converted {
				fxRate = result.Rate
			}
		}

		row := output.SplitRow{
			Date:        s.PostDate,
			Description: s.Description,
			Account:     AccountName(s.Account, opts.FullAccount),
			Memo:        s.Memo,
			Notes:       notes[s.TxGUID],
			Amount:      displayAmount,
			Currency:    displayCurrency,
			FxRate:      fxRate,
			TxGUID:      s.TxGUID,
			SplitGUID:   s.GUID,
		}
		if opts.AlsoOriginal && fxRate != nil {
			orig := value
			row.AmountOrig = &orig
			row.CurrencyOrig = s.Currency
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TxLoader supplies a transaction's full posting set. *book.Book implements it.
type TxLoader interface {
	SplitsForTransaction(ctx context.Context, txGUID string) ([]book.Split, error)
}

// TxOptions controls transaction assembly.
type TxOptions struct {
	Signed      bool
	FullAccount bool
	Context     string // ContextFull or ContextBalanced
}

// BuildTransactions groups matching splits per transaction and attaches
// context splits: the whole posting set in full mode, or the minimal balanced
// selection in balanced mode. Unbalanced warnings are returned for the caller
// to surface.
func BuildTransactions(ctx context.Context, matches []book.Split, loader TxLoader, notes map[string]string, opts TxOptions) ([]output.TransactionRow, []balance.Unbalanced, error) {
	matchingByTx := make(map[string]map[string]struct{})
	var txOrder []string
	txMeta := make(map[string]book.Split)

	for _, s := range matches {
		if _, seen := matchingByTx[s.TxGUID]; !seen {
			matchingByTx[s.TxGUID] = make(map[string]struct{})
			txOrder = append(txOrder, s.TxGUID)
			txMeta[s.TxGUID] = s
		}
		matchingByTx[s.TxGUID][s.GUID] = struct{}{}
	}

	var rows []output.TransactionRow
	var warnings []balance.Unbalanced

	for _, txGUID := range txOrder {
		all, err := loader.SplitsForTransaction(ctx, txGUID)
		if err != nil {
			return nil, nil, err
		}

		selected := all
		if opts.Context == ContextBalanced {
			var unbalanced *balance.Unbalanced
			selected, unbalanced = balance.Select(all, matchingByTx[txGUID])
			if unbalanced != nil {
				warnings = append(warnings, *unbalanced)
			}
		}

		meta := txMeta[txGUID]
		note := notes[txGUID]
		splitRows := make([]output.SplitRow, 0, len(selected))
		for _, s := range selected {
			value := s.Value
			if !opts.Signed {
				value = value.Abs()
			}
			splitRows = append(splitRows, output.SplitRow{
				Date:        s.PostDate,
				Description: s.Description,
				Account:     AccountName(s.Account, opts.FullAccount),
				Memo:        s.Memo,
				Notes:       note,
				Amount:      value,
				Currency:    s.Currency,
				TxGUID:      s.TxGUID,
				SplitGUID:   s.GUID,
			})
		}

		rows = append(rows, output.TransactionRow{
			TxGUID:      txGUID,
			Date:        meta.PostDate,
			Description: meta.Description,
			Notes:       note,
			Splits:      splitRows,
		})
	}
	return rows, warnings, nil
}

// SortRows orders split rows by date, amount, account, or description.
func SortRows(rows []output.SplitRow, key string, reverse bool) {
	less := func(i, j int) bool {
		switch key {
		case "amount":
			return rows[i].Amount.LessThan(rows[j].Amount)
		case "account":
			return rows[i].Account < rows[j].Account
		case "description":
			return rows[i].Description < rows[j].Description
		default:
			return rows[i].Date.Before(rows[j].Date)
		}
	}
	if reverse {
		sort.SliceStable(rows, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(rows, less)
	}
}

// SortTransactions orders transaction rows; the amount key uses the largest
// absolute split amount in each transaction.
func SortTransactions(rows []output.TransactionRow, key string, reverse bool) {
	maxAbs := func(r output.TransactionRow) decimal.Decimal {
		max := decimal.Zero
		for _, s := range r.Splits {
			if a := s.Amount.Abs(); a.GreaterThan(max) {
				max = a
			}
		}
		return max
	}
	less := func(i, j int) bool {
		switch key {
		case "amount":
			return maxAbs(rows[i]).LessThan(maxAbs(rows[j]))
		case "account":
			var a, b string
			if len(rows[i].Splits) > 0 {
				a = rows[i].Splits[0].Account
			}
			if len(rows[j].Splits) > 0 {
				b = rows[j].Splits[0].Account
			}
			return a < b
		case "description":
			return rows[i].Description < rows[j].Description
		default:
			return rows[i].Date.Before(rows[j].Date)
		}
	}
	if reverse {
		sort.SliceStable(rows, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(rows, less)
	}
}

// Window applies offset/limit to a row slice.
func Window[T any](rows []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
