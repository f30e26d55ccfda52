package query

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bookgrep/bookgrep/internal/book"
)

func testSplit(desc, memo, value, date string) book.Split {
	d, _ := time.Parse("2006-01-02", date)
	return book.Split{
		Description: desc,
		Memo:        memo,
		Value:       decimal.RequireFromString(value),
		PostDate:    d,
	}
}

func TestCompileText(t *testing.T) {
	t.Parallel()

	re, err := CompileText("market (organic)", false, false)
	require.NoError(t, err)
	require.True(t, re.MatchString("Farmers Market (Organic) Weekly"))
	require.False(t, re.MatchString("Farmers Market Organic"), "literal mode must escape metacharacters")

	re, err = CompileText("^rent", true, false)
	require.NoError(t, err)
	require.True(t, re.MatchString("Rent January"))
	require.False(t, re.MatchString("The rent"))

	re, err = CompileText("Rent", false, true)
	require.NoError(t, err)
	require.False(t, re.MatchString("rent"))

	_, err = CompileText("([", true, false)
	require.ErrorIs(t, err, book.ErrInvalidPattern)
}

func TestFilterTextFields(t *testing.T) {
	t.Parallel()
	re, err := CompileText("coffee", false, false)
	require.NoError(t, err)

	s := testSplit("Morning espresso", "coffee beans", "4.50", "2026-01-10")

	descOnly := &Filter{Pattern: re, Fields: Fields{Desc: true}}
	require.False(t, descOnly.Match(s, ""))

	memoToo := &Filter{Pattern: re, Fields: Fields{Desc: true, Memo: true}}
	require.True(t, memoToo.Match(s, ""))

	notesOnly := &Filter{Pattern: re, Fields: Fields{Notes: true}}
	require.False(t, notesOnly.Match(s, ""))
	require.True(t, notesOnly.Match(s, "paid with coffee loyalty card"))
}

func TestFilterDateWindow(t *testing.T) {
	t.Parallel()
	after, _ := time.Parse("2006-01-02", "2026-01-10")
	before, _ := time.Parse("2006-01-02", "2026-01-20")
	f := &Filter{After: &after, Before: &before}

	require.True(t, f.Match(testSplit("x", "", "1", "2026-01-10"), ""), "after bound is inclusive")
	require.True(t, f.Match(testSplit("x", "", "1", "2026-01-19"), ""))
	require.False(t, f.Match(testSplit("x", "", "1", "2026-01-20"), ""), "before bound is exclusive")
	require.False(t, f.Match(testSplit("x", "", "1", "2026-01-09"), ""))
}

func TestFilterAmountBounds(t *testing.T) {
	t.Parallel()
	min := decimal.RequireFromString("10")
	max := decimal.RequireFromString("100")

	abs := &Filter{MinAmount: &min, MaxAmount: &max}
	require.True(t, abs.Match(testSplit("x", "", "-50", "2026-01-01"), ""), "absolute value by default")
	require.False(t, abs.Match(testSplit("x", "", "-5", "2026-01-01"), ""))
	require.False(t, abs.Match(testSplit("x", "", "150", "2026-01-01"), ""))

	signed := &Filter{MinAmount: &min, MaxAmount: &max, Signed: true}
	require.False(t, signed.Match(testSplit("x", "", "-50", "2026-01-01"), ""))
	require.True(t, signed.Match(testSplit("x", "", "50", "2026-01-01"), ""))
}

func TestAccountName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Groceries", AccountName("Expenses:Food:Groceries", false))
	require.Equal(t, "Expenses:Food:Groceries", AccountName("Expenses:Food:Groceries", true))
	require.Equal(t, "Assets", AccountName("Assets", false))
}

func TestWindow(t *testing.T) {
	t.Parallel()
	rows := []int{1, 2, 3, 4, 5}

	require.Equal(t, []int{1, 2, 3, 4, 5}, Window(rows, 0, 0))
	require.Equal(t, []int{1, 2}, Window(rows, 0, 2))
	require.Equal(t, []int{3, 4, 5}, Window(rows, 2, 0))
	require.Equal(t, []int{3, 4}, Window(rows, 2, 2))
	require.Nil(t, Window(rows, 10, 0))
}
