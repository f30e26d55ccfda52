package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bookgrep/bookgrep/internal/book"
)

func split(guid, currency, value string) book.Split {
	return book.Split{
		GUID:     guid,
		TxGUID:   "tx-1",
		Currency: currency,
		Value:    decimal.RequireFromString(value),
	}
}

func matching(guids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(guids))
	for _, g := range guids {
		m[g] = struct{}{}
	}
	return m
}

func guids(splits []book.Split) []string {
	out := make([]string, len(splits))
	for i, s := range splits {
		out[i] = s.GUID
	}
	return out
}

func TestSelectAlreadyBalanced(t *testing.T) {
	t.Parallel()
	all := []book.Split{
		split("a", "EUR", "100"),
		split("b", "EUR", "-100"),
		split("c", "EUR", "50"),
		split("d", "EUR", "-50"),
	}

	selected, unbalanced := Select(all, matching("a", "b"))
	require.Nil(t, unbalanced)
	require.Equal(t, []string{"a", "b"}, guids(selected))
}

func TestSelectMinimalCounterSubset(t *testing.T) {
	t.Parallel()
	// +100 against candidates -60, -40, -30, +30: the smallest exact
	// combination is {-60, -40}, not anything involving the smaller splits.
	all := []book.Split{
		split("m", "EUR", "100"),
		split("r1", "EUR", "-60"),
		split("r2", "EUR", "-40"),
		split("r3", "EUR", "-30"),
		split("r4", "EUR", "30"),
	}

	selected, unbalanced := Select(all, matching("m"))
	require.Nil(t, unbalanced)
	require.ElementsMatch(t, []string{"m", "r1", "r2"}, guids(selected))
}

func TestSelectPrefersSingleCounterSplit(t *testing.T) {
	t.Parallel()
	all := []book.Split{
		split("m", "EUR", "100"),
		split("r1", "EUR", "-100"),
		split("r2", "EUR", "-60"),
		split("r3", "EUR", "-40"),
	}

	selected, unbalanced := Select(all, matching("m"))
	require.Nil(t, unbalanced)
	require.Equal(t, []string{"m", "r1"}, guids(selected))
}

func TestSelectTieBreakIsDeterministic(t *testing.T) {
	t.Parallel()
	// Two equal-value candidates: the one with the smaller GUID sorts first
	// and wins.
	all := []book.Split{
		split("m", "EUR", "25"),
		split("z", "EUR", "-25"),
		split("a", "EUR", "-25"),
	}

	for i := 0; i < 10; i++ {
		selected, unbalanced := Select(all, matching("m"))
		require.Nil(t, unbalanced)
		require.Equal(t, []string{"m", "a"}, guids(selected))
	}
}

func TestSelectUnbalanceableFallsBackToFullTransaction(t *testing.T) {
	t.Parallel()
	all := []book.Split{
		split("m", "EUR", "100"),
		split("r1", "EUR", "-33"),
		split("r2", "EUR", "-33"),
	}

	selected, unbalanced := Select(all, matching("m"))
	require.NotNil(t, unbalanced)
	require.Equal(t, "EUR", unbalanced.Currency)
	require.Equal(t, "tx-1", unbalanced.TxGUID)
	require.Equal(t, guids(all), guids(selected), "fallback returns all splits unchanged")
}

func TestSelectPerCurrencyBalancing(t *testing.T) {
	t.Parallel()
	// A currency-trade transaction: the GBP match is balanced from the GBP
	// pool only, EUR legs stay out.
	all := []book.Split{
		split("gbp-out", "GBP", "-100"),
		split("gbp-in", "GBP", "100"),
		split("eur-in", "EUR", "117"),
		split("eur-out", "EUR", "-117"),
	}

	selected, unbalanced := Select(all, matching("gbp-out"))
	require.Nil(t, unbalanced)
	require.ElementsMatch(t, []string{"gbp-out", "gbp-in"}, guids(selected))
}

func TestSelectMultiCurrencyMatches(t *testing.T) {
	t.Parallel()
	all := []book.Split{
		split("gbp-m", "GBP", "-80"),
		split("eur-m", "EUR", "95"),
		split("gbp-c", "GBP", "80"),
		split("eur-c", "EUR", "-95"),
	}

	selected, unbalanced := Select(all, matching("gbp-m", "eur-m"))
	require.Nil(t, unbalanced)
	require.ElementsMatch(t, []string{"gbp-m", "eur-m", "gbp-c", "eur-c"}, guids(selected))
}

func TestSelectExactDecimalSums(t *testing.T) {
	t.Parallel()
	// 0.1 + 0.2 must equal 0.3 exactly.
	all := []book.Split{
		split("m", "EUR", "0.3"),
		split("r1", "EUR", "-0.1"),
		split("r2", "EUR", "-0.2"),
	}

	selected, unbalanced := Select(all, matching("m"))
	require.Nil(t, unbalanced)
	require.ElementsMatch(t, []string{"m", "r1", "r2"}, guids(selected))
}
