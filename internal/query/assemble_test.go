package query

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/book/booktest"
	"github.com/bookgrep/bookgrep/internal/currency"
	"github.com/bookgrep/bookgrep/internal/output"
)

func openFixture(t *testing.T) (*book.Book, map[string]string) {
	t.Helper()
	b := booktest.New(t, true)

	guids := map[string]string{}
	guids["checking"] = b.Account("Checking", "BANK", "", "EUR")
	guids["savings-gbp"] = b.Account("Savings GBP", "BANK", "", "GBP")
	guids["groceries"] = b.Account("Groceries", "EXPENSE", "", "EUR")

	guids["tx-shop"] = b.Transaction("2026-01-10", "EUR", "Weekly shop",
		booktest.SplitSpec{Account: guids["groceries"], Num: 5425, Denom: 100},
		booktest.SplitSpec{Account: guids["checking"], Num: -5425, Denom: 100},
	)
	guids["tx-transfer"] = b.Transaction("2026-01-15", "GBP", "Transfer to savings",
		booktest.SplitSpec{Account: guids["savings-gbp"], Num: 10000, Denom: 100},
		booktest.SplitSpec{Account: guids["checking"], Num: -11700, Denom: 100},
	)
	b.Price("GBP", "EUR", "2026-01-14", 117, 100)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	t.Cleanup(func() { bk.Close() })
	return bk, guids
}

func TestBuildRowsConvertsToBase(t *testing.T) {
	t.Parallel()
	bk, guids := openFixture(t)
	ctx := context.Background()

	conv, err := currency.NewConverter(bk, "EUR", 30)
	require.NoError(t, err)

	splits, err := bk.SplitsForAccounts(ctx, []string{guids["savings-gbp"]})
	require.NoError(t, err)
	require.Len(t, splits, 1)

	rows, err := BuildRows(ctx, splits, nil, conv, RowOptions{
		Mode: currency.ModeBase, AlsoOriginal: true,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// 100 GBP at the 1.17 quote from the day before.
	r := rows[0]
	require.Equal(t, "EUR", r.Currency)
	require.Equal(t, "117.00", r.Amount.StringFixed(2))
	require.NotNil(t, r.FxRate)
	require.Equal(t, "1.17", r.FxRate.String())
	require.NotNil(t, r.AmountOrig)
	require.Equal(t, "100", r.AmountOrig.String())
	require.Equal(t, "GBP", r.CurrencyOrig)
}

func TestBuildRowsKeepsOriginalWhenNoRate(t *testing.T) {
	t.Parallel()
	bk, guids := openFixture(t)
	ctx := context.Background()

	// Base currency nobody has a quote for.
	conv, err := currency.NewConverter(bk, "JPY", 30)
	require.NoError(t, err)

	splits, err := bk.SplitsForAccounts(ctx, []string{guids["savings-gbp"]})
	require.NoError(t, err)

	rows, err := BuildRows(ctx, splits, nil, conv, RowOptions{Mode: currency.ModeBase})
	require.NoError(t, err)
	require.Equal(t, "GBP", rows[0].Currency)
	require.Equal(t, "100", rows[0].Amount.String())
	require.Nil(t, rows[0].FxRate)
}

func TestBuildRowsSignedToggle(t *testing.T) {
	t.Parallel()
	bk, guids := openFixture(t)
	ctx := context.Background()

	conv, err := currency.NewConverter(bk, "EUR", 30)
	require.NoError(t, err)

	splits, err := bk.SplitsForAccounts(ctx, []string{guids["checking"]})
	require.NoError(t, err)
	require.Len(t, splits, 2)

	abs, err := BuildRows(ctx, splits, nil, conv, RowOptions{Mode: currency.ModeSplit})
	require.NoError(t, err)
	require.True(t, abs[0].Amount.IsPositive())

	signed, err := BuildRows(ctx, splits, nil, conv, RowOptions{Mode: currency.ModeSplit, Signed: true})
	require.NoError(t, err)
	require.True(t, signed[0].Amount.IsNegative())
}

func TestBuildTransactionsBalancedContext(t *testing.T) {
	t.Parallel()
	bk, guids := openFixture(t)
	ctx := context.Background()

	// Match only the Groceries split; balanced context pulls in the exact
	// Checking counter-split.
	splits, err := bk.SplitsForAccounts(ctx, []string{guids["groceries"]})
	require.NoError(t, err)
	require.Len(t, splits, 1)

	rows, warnings, err := BuildTransactions(ctx, splits, bk, nil, TxOptions{
		Context: ContextBalanced,
	})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, rows, 1)
	require.Equal(t, guids["tx-shop"], rows[0].TxGUID)
	require.Len(t, rows[0].Splits, 2)
}

func TestBuildTransactionsGroupsAndDedupes(t *testing.T) {
	t.Parallel()
	bk, guids := openFixture(t)
	ctx := context.Background()

	splits, err := bk.SplitsForAccounts(ctx, []string{guids["checking"], guids["groceries"]})
	require.NoError(t, err)
	require.Len(t, splits, 3)

	rows, warnings, err := BuildTransactions(ctx, splits, bk, nil, TxOptions{
		Context: ContextFull,
	})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, rows, 2, "one row per transaction")
	for _, tx := range rows {
		require.Len(t, tx.Splits, 2)
	}
}

func TestSortRows(t *testing.T) {
	t.Parallel()
	rows := []output.SplitRow{
		{Description: "b", Account: "Y", Amount: decimal.NewFromInt(5)},
		{Description: "a", Account: "X", Amount: decimal.NewFromInt(9)},
		{Description: "c", Account: "Z", Amount: decimal.NewFromInt(1)},
	}

	SortRows(rows, "amount", false)
	require.Equal(t, "c", rows[0].Description)
	require.Equal(t, "a", rows[2].Description)

	SortRows(rows, "amount", true)
	require.Equal(t, "a", rows[0].Description)

	SortRows(rows, "description", false)
	require.Equal(t, "a", rows[0].Description)

	SortRows(rows, "account", false)
	require.Equal(t, "X", rows[0].Account)
}
