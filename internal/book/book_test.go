package book_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/book/booktest"
)

// fixture builds a small household book: EUR checking plus a GBP savings
// account, a grocery expense tree, and one GBP transaction.
func fixture(t *testing.T, withNotesColumn bool) (*booktest.Builder, map[string]string) {
	t.Helper()
	b := booktest.New(t, withNotesColumn)

	guids := map[string]string{}
	guids["assets"] = b.Account("Assets", "ASSET", "", "EUR")
	guids["checking"] = b.Account("Checking", "BANK", guids["assets"], "EUR")
	guids["savings-gbp"] = b.Account("Savings GBP", "BANK", guids["assets"], "GBP")
	guids["expenses"] = b.Account("Expenses", "EXPENSE", "", "EUR")
	guids["food"] = b.Account("Food", "EXPENSE", guids["expenses"], "EUR")
	guids["groceries"] = b.Account("Groceries", "EXPENSE", guids["food"], "EUR")
	guids["rent"] = b.Account("Rent", "EXPENSE", guids["expenses"], "EUR")
	guids["trading"] = b.Account("CURRENCY", "TRADING", "", "EUR")

	guids["tx-groceries"] = b.Transaction("2026-01-10", "EUR", "Weekly shop",
		booktest.SplitSpec{Account: guids["groceries"], Num: 5425, Denom: 100, Memo: "market"},
		booktest.SplitSpec{Account: guids["checking"], Num: -5425, Denom: 100},
	)
	guids["tx-rent"] = b.Transaction("2026-01-01", "EUR", "Rent January",
		booktest.SplitSpec{Account: guids["rent"], Num: 95000, Denom: 100},
		booktest.SplitSpec{Account: guids["checking"], Num: -95000, Denom: 100},
	)
	guids["tx-gbp"] = b.Transaction("2026-01-15", "GBP", "Transfer to savings",
		booktest.SplitSpec{Account: guids["savings-gbp"], Num: 10000, Denom: 100},
		booktest.SplitSpec{Account: guids["checking"], Num: -11700, Denom: 100},
	)
	b.Note(guids["tx-groceries"], "paid cash")
	return b, guids
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	_, err := book.Open("/nonexistent/book.gnucash")
	require.ErrorIs(t, err, book.ErrBookNotFound)

	_, err = book.Open(t.TempDir())
	require.ErrorIs(t, err, book.ErrNotAFile)
}

func TestOpenProbesInfo(t *testing.T) {
	t.Parallel()
	b, _ := fixture(t, true)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	info := bk.Info()
	require.True(t, info.HasNotesColumn)
	require.False(t, info.HasSlotsNotes)
	require.Equal(t, 3, info.TransactionCount)
	require.Equal(t, "EUR", info.DefaultCurrency, "dominant transaction currency")
	// ROOT and TRADING are not user-facing accounts.
	require.Equal(t, 7, info.AccountCount)
}

func TestAccountsFullNames(t *testing.T) {
	t.Parallel()
	b, _ := fixture(t, true)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	var names []string
	for _, a := range bk.Accounts() {
		names = append(names, a.FullName)
	}
	require.Equal(t, []string{
		"Assets",
		"Assets:Checking",
		"Assets:Savings GBP",
		"Expenses",
		"Expenses:Food",
		"Expenses:Food:Groceries",
		"Expenses:Rent",
	}, names)
}

func TestAccountsByPattern(t *testing.T) {
	t.Parallel()
	b, _ := fixture(t, true)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	t.Run("substring case-insensitive", func(t *testing.T) {
		accounts, err := bk.AccountsByPattern("groc", false, false, false)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		require.Equal(t, "Expenses:Food:Groceries", accounts[0].FullName)
	})

	t.Run("case sensitive", func(t *testing.T) {
		accounts, err := bk.AccountsByPattern("groc", false, true, false)
		require.NoError(t, err)
		require.Empty(t, accounts)
	})

	t.Run("regex", func(t *testing.T) {
		accounts, err := bk.AccountsByPattern("^Expenses:(Food|Rent)$", true, false, false)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
	})

	t.Run("invalid regex", func(t *testing.T) {
		_, err := bk.AccountsByPattern("([", true, false, false)
		require.ErrorIs(t, err, book.ErrInvalidPattern)
	})

	t.Run("subtree", func(t *testing.T) {
		accounts, err := bk.AccountsByPattern("Expenses:Food", false, false, true)
		require.NoError(t, err)
		var names []string
		for _, a := range accounts {
			names = append(names, a.FullName)
		}
		require.Equal(t, []string{"Expenses:Food", "Expenses:Food:Groceries"}, names)
	})

	t.Run("never matches trading", func(t *testing.T) {
		accounts, err := bk.AccountsByPattern("CURRENCY", false, false, false)
		require.NoError(t, err)
		require.Empty(t, accounts)
	})
}

func TestSuggestAccounts(t *testing.T) {
	t.Parallel()
	b, _ := fixture(t, true)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	suggestions := bk.SuggestAccounts("Grocereis", 3)
	require.Len(t, suggestions, 3)
	require.Equal(t, "Expenses:Food:Groceries", suggestions[0])
}

func TestSplitsForAccounts(t *testing.T) {
	t.Parallel()
	b, guids := fixture(t, true)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	splits, err := bk.SplitsForAccounts(context.Background(), []string{guids["checking"]})
	require.NoError(t, err)
	require.Len(t, splits, 3)

	// Ordered by post date.
	require.Equal(t, "Rent January", splits[0].Description)
	require.Equal(t, "Weekly shop", splits[1].Description)
	require.Equal(t, "Transfer to savings", splits[2].Description)

	s := splits[1]
	require.Equal(t, "Assets:Checking", s.Account)
	require.Equal(t, "EUR", s.Currency)
	require.True(t, s.Value.Equal(decimal.RequireFromString("-54.25")), "got %s", s.Value)
	require.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), s.PostDate)

	none, err := bk.SplitsForAccounts(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestTransactionAndSplitByGUID(t *testing.T) {
	t.Parallel()
	b, guids := fixture(t, true)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	tx, err := bk.TransactionByGUID(context.Background(), guids["tx-groceries"])
	require.NoError(t, err)
	require.Equal(t, "Weekly shop", tx.Description)
	require.Len(t, tx.Splits, 2)

	sp, err := bk.SplitByGUID(context.Background(), tx.Splits[0].GUID)
	require.NoError(t, err)
	require.Equal(t, tx.Splits[0].GUID, sp.GUID)

	_, err = bk.TransactionByGUID(context.Background(), "missing")
	require.ErrorIs(t, err, book.ErrTransactionNotFound)

	_, err = bk.SplitByGUID(context.Background(), "missing")
	require.ErrorIs(t, err, book.ErrSplitNotFound)
}

func TestNotesFromColumn(t *testing.T) {
	t.Parallel()
	b, guids := fixture(t, true)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	note, err := bk.Note(context.Background(), guids["tx-groceries"])
	require.NoError(t, err)
	require.Equal(t, "paid cash", note)

	note, err = bk.Note(context.Background(), guids["tx-rent"])
	require.NoError(t, err)
	require.Empty(t, note)

	notes, err := bk.NotesBatch(context.Background(),
		[]string{guids["tx-groceries"], guids["tx-rent"]})
	require.NoError(t, err)
	require.Equal(t, map[string]string{guids["tx-groceries"]: "paid cash"}, notes)
}

func TestNotesFromSlots(t *testing.T) {
	t.Parallel()
	b, guids := fixture(t, false)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	info := bk.Info()
	require.False(t, info.HasNotesColumn)
	require.True(t, info.HasSlotsNotes)

	note, err := bk.Note(context.Background(), guids["tx-groceries"])
	require.NoError(t, err)
	require.Equal(t, "paid cash", note)

	notes, err := bk.NotesBatch(context.Background(), []string{guids["tx-groceries"]})
	require.NoError(t, err)
	require.Equal(t, "paid cash", notes[guids["tx-groceries"]])
}

func TestPriceLookup(t *testing.T) {
	t.Parallel()
	b, _ := fixture(t, true)
	b.Price("GBP", "EUR", "2026-01-02", 117, 100)
	b.Price("GBP", "EUR", "2026-01-20", 118, 100)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	ctx := context.Background()
	on := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	earliest := on.AddDate(0, 0, -30)

	num, denom, ok, err := bk.PriceLookup(ctx, "GBP", "EUR", on, earliest)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(118), num)
	require.Equal(t, int64(100), denom)

	// A narrower window picks the older quote.
	num, _, ok, err = bk.PriceLookup(ctx, "GBP", "EUR",
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), earliest)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(117), num)

	// Quotes outside the window are not found.
	_, _, ok, err = bk.PriceLookup(ctx, "GBP", "EUR", on,
		time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.False(t, ok)

	// Unknown pair.
	_, _, ok, err = bk.PriceLookup(ctx, "CHF", "EUR", on, earliest)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPruneToMatchingPaths(t *testing.T) {
	t.Parallel()
	b, _ := fixture(t, true)

	bk, err := book.Open(b.Path())
	require.NoError(t, err)
	defer bk.Close()

	matches, err := bk.AccountsByPattern("Expenses:Food$", true, false, false)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	pruned := bk.PruneToMatchingPaths(matches)
	var names []string
	for _, a := range pruned {
		names = append(names, a.FullName)
	}
	require.Equal(t, []string{"Expenses", "Expenses:Food", "Expenses:Food:Groceries"}, names)
}
