// Package query filters splits and assembles them into display rows, sharing
// one code path between the CLI, the REPL, and the HTTP API.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// ParseDateRange parses "A..B", "A..", or "..B". Both bounds are inclusive;
// either may be nil.
func ParseDateRange(s string) (start, end *time.Time, err error) {
	if !strings.Contains(s, "..") {
		return nil, nil, fmt.Errorf("invalid date range %q (want A..B, A.., or ..B)", s)
	}
	parts := strings.SplitN(s, "..", 2)
	if a := strings.TrimSpace(parts[0]); a != "" {
		t, err := ParseDate(a)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if b := strings.TrimSpace(parts[1]); b != "" {
		t, err := ParseDate(b)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	return start, end, nil
}

// ParseAmountRange parses "MIN..MAX", "MIN..", or "..MAX".
func ParseAmountRange(s string) (min, max *decimal.Decimal, err error) {
	if !strings.Contains(s, "..") {
		return nil, nil, fmt.Errorf("invalid amount range %q (want MIN..MAX, MIN.., or ..MAX)", s)
	}
	parts := strings.SplitN(s, "..", 2)
	if a := strings.TrimSpace(parts[0]); a != "" {
		d, err := decimal.NewFromString(a)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid amount in range %q: %w", s, err)
		}
		min = &d
	}
	if b := strings.TrimSpace(parts[1]); b != "" {
		d, err := decimal.NewFromString(b)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid amount in range %q: %w", s, err)
		}
		max = &d
	}
	return min, max, nil
}

// ResolveDateWindow combines --after/--before with a --date range. After is
// inclusive and before exclusive; a range end is inclusive, so it becomes
// before = end + 1 day.
func ResolveDateWindow(after, before, rangeStart, rangeEnd *time.Time) (*time.Time, *time.Time) {
	if rangeStart != nil {
		after = rangeStart
	}
	if rangeEnd != nil {
		b := rangeEnd.AddDate(0, 0, 1)
		before = &b
	}
	return after, before
}
