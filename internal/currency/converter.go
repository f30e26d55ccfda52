package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookgrep/bookgrep/internal/book"
)

// DefaultLookbackDays bounds how far back a quote may be dated relative to
// the conversion date before it is treated as missing.
const DefaultLookbackDays = 30

// PriceSource answers historical quote lookups. *book.Book implements it.
type PriceSource interface {
	PriceLookup(ctx context.Context, from, to string, onOrBefore, earliest time.Time) (num, denom int64, ok bool, err error)
}

// ConversionResult reports one conversion attempt. Converted is false both
// when the currencies already matched and when no rate was available; in the
// latter case Amount/Currency fall back to the original values and Rate is
// nil, so callers can render "conversion unavailable" rather than a silent
// identity.
type ConversionResult struct {
	Amount           decimal.Decimal
	Currency         string
	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	Rate             *decimal.Decimal
	Converted        bool
}

type priceKey struct {
	from, to string
	date     string
}

// Converter converts amounts using the book's price database with a bounded
// lookback window. One Converter is created per query session; its cache maps
// (pair, date) to a rate, with nil recording a lookup that found nothing so
// repeated misses don't requery. Not safe for concurrent use.
type Converter struct {
	prices       PriceSource
	base         string
	lookbackDays int
	cache        map[priceKey]*decimal.Decimal
}

func NewConverter(prices PriceSource, base string, lookbackDays int) (*Converter, error) {
	if lookbackDays < 0 {
		return nil, fmt.Errorf("%w: %d", book.ErrInvalidLookback, lookbackDays)
	}
	return &Converter{
		prices:       prices,
		base:         base,
		lookbackDays: lookbackDays,
		cache:        make(map[priceKey]*decimal.Decimal),
	}, nil
}

// Base returns the configured base currency.
func (c *Converter) Base() string {
	return c.base
}

var one = decimal.NewFromInt(1)

// Price returns the exchange rate from one currency to another as of a date,
// or nil when no quote exists within the lookback window. Both the stored
// direction and its reciprocal are tried, and both outcomes are cached.
func (c *Converter) Price(ctx context.Context, from, to string, on time.Time) (*decimal.Decimal, error) {
	if from == to {
		r := one
		return &r, nil
	}

	key := priceKey{from: from, to: to, date: on.Format("2006-01-02")}
	if rate, hit := c.cache[key]; hit {
		return rate, nil
	}

	// A cached reverse rate yields the forward rate by reciprocal.
	reverse := priceKey{from: to, to: from, date: key.date}
	if rate, hit := c.cache[reverse]; hit && rate != nil {
		derived := one.Div(*rate)
		c.cache[key] = &derived
		return &derived, nil
	}

	rate, err := c.lookup(ctx, from, to, on)
	if err != nil {
		return nil, err
	}
	c.cache[key] = rate
	return rate, nil
}

func (c *Converter) lookup(ctx context.Context, from, to string, on time.Time) (*decimal.Decimal, error) {
	earliest := on.AddDate(0, 0, -c.lookbackDays)

	num, denom, ok, err := c.prices.PriceLookup(ctx, from, to, on, earliest)
	if err != nil {
		return nil, err
	}
	if ok {
		rate := decimal.NewFromInt(num).Div(decimal.NewFromInt(denom))
		return &rate, nil
	}

	num, denom, ok, err = c.prices.PriceLookup(ctx, to, from, on, earliest)
	if err != nil {
		return nil, err
	}
	if ok {
		inverse := decimal.NewFromInt(num).Div(decimal.NewFromInt(denom))
		rate := one.Div(inverse)
		return &rate, nil
	}

	return nil, nil
}

// Convert converts an amount between currencies as of a date. A missing rate
// is not an error: the result keeps the original amount and currency with
// Converted=false.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, on time.Time) (ConversionResult, error) {
	if from == to {
		r := one
		return ConversionResult{
			Amount:           amount,
			Currency:         to,
			OriginalAmount:   amount,
			OriginalCurrency: from,
			Rate:             &r,
			Converted:        false,
		}, nil
	}

	rate, err := c.Price(ctx, from, to, on)
	if err != nil {
		return ConversionResult{}, err
	}
	if rate == nil {
		return ConversionResult{
			Amount:           amount,
			Currency:         from,
			OriginalAmount:   amount,
			OriginalCurrency: from,
			Rate:             nil,
			Converted:        false,
		}, nil
	}

	return ConversionResult{
		Amount:           amount.Mul(*rate),
		Currency:         to,
		OriginalAmount:   amount,
		OriginalCurrency: from,
		Rate:             rate,
		Converted:        true,
	}, nil
}
