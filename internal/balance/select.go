// Package balance reconstructs a balanced display context around the splits
// of a transaction that matched a search: all matches are kept, and the
// fewest possible counter-splits are added so every currency present in the
// selection nets to exactly zero.
package balance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bookgrep/bookgrep/internal/book"
)

// Unbalanced signals that no exact counter-subset exists for a currency and
// the full transaction was returned instead.
type Unbalanced struct {
	TxGUID   string
	Currency string
}

// Select returns the matching splits plus, per currency, the smallest subset
// of the remaining splits whose values sum to the exact counter-balance.
//
// Candidates are ordered by absolute value descending, GUID ascending on
// ties; subset sizes are tried in increasing order and the first exact
// combination in lexicographic index order wins, so results are
// deterministic. If some currency cannot be balanced exactly, all splits are
// returned unchanged together with a non-nil *Unbalanced.
func Select(all []book.Split, matching map[string]struct{}) ([]book.Split, *Unbalanced) {
	var selected, remaining []book.Split
	for _, s := range all {
		if _, ok := matching[s.GUID]; ok {
			selected = append(selected, s)
		} else {
			remaining = append(remaining, s)
		}
	}

	sort.Slice(remaining, func(i, j int) bool {
		ai, aj := remaining[i].Value.Abs(), remaining[j].Value.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return remaining[i].GUID < remaining[j].GUID
	})

	balances := make(map[string]decimal.Decimal)
	var currencies []string
	for _, s := range selected {
		if _, seen := balances[s.Currency]; !seen {
			currencies = append(currencies, s.Currency)
		}
		balances[s.Currency] = balances[s.Currency].Add(s.Value)
	}

	pools := make(map[string][]book.Split)
	for _, s := range remaining {
		pools[s.Currency] = append(pools[s.Currency], s)
	}

	for _, cur := range currencies {
		balance := balances[cur]
		if balance.IsZero() {
			continue
		}
		subset := findBalancingSubset(pools[cur], balance.Neg())
		if subset == nil {
			return all, &Unbalanced{Currency: cur, TxGUID: txGUID(all)}
		}
		selected = append(selected, subset...)
	}

	return selected, nil
}

// findBalancingSubset searches for the smallest subset of splits summing
// exactly to target. Exhaustive backtracking per size; exponential in the
// worst case, but real transactions keep per-currency pools tiny.
func findBalancingSubset(pool []book.Split, target decimal.Decimal) []book.Split {
	values := make([]decimal.Decimal, len(pool))
	for i, s := range pool {
		values[i] = s.Value
	}

	for size := 1; size <= len(pool); size++ {
		var chosen []int

		var backtrack func(start, remaining int, total decimal.Decimal) bool
		backtrack = func(start, remaining int, total decimal.Decimal) bool {
			if remaining == 0 {
				return total.Equal(target)
			}
			for idx := start; idx <= len(pool)-remaining; idx++ {
				chosen = append(chosen, idx)
				if backtrack(idx+1, remaining-1, total.Add(values[idx])) {
					return true
				}
				chosen = chosen[:len(chosen)-1]
			}
			return false
		}

		if backtrack(0, size, decimal.Zero) {
			subset := make([]book.Split, len(chosen))
			for i, idx := range chosen {
				subset[i] = pool[idx]
			}
			return subset
		}
	}
	return nil
}

func txGUID(splits []book.Split) string {
	if len(splits) > 0 {
		return splits[0].TxGUID
	}
	return ""
}
