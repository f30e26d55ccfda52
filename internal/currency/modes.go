// Package currency resolves display currencies and converts amounts between
// commodities using point-in-time quotes from the book's price database.
package currency

import "fmt"

// Mode selects which currency amounts are rendered in.
type Mode string

const (
	ModeAuto    Mode = "auto"    // single account/split currency, else base
	ModeBase    Mode = "base"    // always the configured base currency
	ModeSplit   Mode = "split"   // each split's own currency, no conversion
	ModeAccount Mode = "account" // the filtered accounts' currency when unique
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeBase, ModeSplit, ModeAccount:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid currency mode %q (want auto, base, split or account)", s)
	}
}

// ResolveDisplayCurrency picks a single target currency for a batch of
// splits, or reports ok=false meaning each split keeps its own currency.
//
// splitCurrencies are the account currencies of the splits being displayed;
// accountFilterCurrencies are the currencies implied by an account filter, if
// any. ModeAuto always resolves to some currency: the filter currency when
// unique, else the shared split currency, else base.
func ResolveDisplayCurrency(mode Mode, splitCurrencies, accountFilterCurrencies []string, base string) (string, bool) {
	switch mode {
	case ModeSplit:
		return "", false
	case ModeBase:
		return base, true
	case ModeAccount:
		if c, ok := single(accountFilterCurrencies); ok {
			return c, true
		}
		return "", false
	default: // ModeAuto
		if c, ok := single(accountFilterCurrencies); ok {
			return c, true
		}
		if c, ok := single(splitCurrencies); ok {
			return c, true
		}
		return base, true
	}
}

// single reports the sole distinct non-empty value, if there is exactly one.
func single(values []string) (string, bool) {
	var found string
	for _, v := range values {
		if v == "" {
			continue
		}
		if found == "" {
			found = v
		} else if v != found {
			return "", false
		}
	}
	return found, found != ""
}
