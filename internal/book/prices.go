package book

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PriceLookup returns the most recent quote for (commodity=from,
// currency=to) dated within [earliest, onOrBefore], as the exact
// num/denom rational stored in the book. ok is false when no quote exists in
// the window. Quotes sharing the latest date are tie-broken by GUID so the
// result is deterministic.
func (b *Book) PriceLookup(ctx context.Context, from, to string, onOrBefore, earliest time.Time) (num, denom int64, ok bool, err error) {
	err = b.db.QueryRowContext(ctx,
		`SELECT p.value_num, p.value_denom
		 FROM prices p
		 JOIN commodities c1 ON p.commodity_guid = c1.guid
		 JOIN commodities c2 ON p.currency_guid = c2.guid
		 WHERE c1.mnemonic = ?
		   AND c2.mnemonic = ?
		   AND date(p.date) <= ?
		   AND date(p.date) >= ?
		 ORDER BY date(p.date) DESC, p.guid DESC
		 LIMIT 1`,
		from, to,
		onOrBefore.Format("2006-01-02"),
		earliest.Format("2006-01-02"),
	).Scan(&num, &denom)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("price lookup %s/%s: %w", from, to, err)
	}
	if denom == 0 {
		denom = 1
	}
	return num, denom, true, nil
}
