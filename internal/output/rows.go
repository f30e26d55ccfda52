// Package output renders query results as aligned tables, CSV, or JSON.
package output

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitRow is one line of split output, already converted for display.
type SplitRow struct {
	Date         time.Time
	Description  string
	Account      string
	Memo         string
	Notes        string
	Amount       decimal.Decimal
	Currency     string
	FxRate       *decimal.Decimal
	TxGUID       string
	SplitGUID    string
	AmountOrig   *decimal.Decimal
	CurrencyOrig string
}

func (r SplitRow) ToMap(includeNotes bool) map[string]any {
	m := map[string]any{
		"date":        r.Date.Format("2006-01-02"),
		"description": r.Description,
		"account":     r.Account,
		"memo":        r.Memo,
		"amount":      r.Amount.String(),
		"currency":    r.Currency,
		"tx_guid":     r.TxGUID,
		"split_guid":  r.SplitGUID,
	}
	if includeNotes && r.Notes != "" {
		m["notes"] = r.Notes
	}
	if r.FxRate != nil {
		m["fx_rate"] = r.FxRate.String()
	} else {
		m["fx_rate"] = nil
	}
	if r.AmountOrig != nil {
		m["amount_orig"] = r.AmountOrig.String()
		m["currency_orig"] = r.CurrencyOrig
	}
	return m
}

// TransactionRow is a transaction with its (possibly context-selected) splits.
type TransactionRow struct {
	TxGUID      string
	Date        time.Time
	Description string
	Notes       string
	Splits      []SplitRow
}

func (r TransactionRow) ToMap(includeNotes bool) map[string]any {
	splits := make([]map[string]any, 0, len(r.Splits))
	for _, s := range r.Splits {
		splits = append(splits, s.ToMap(includeNotes))
	}
	m := map[string]any{
		"tx_guid":     r.TxGUID,
		"date":        r.Date.Format("2006-01-02"),
		"description": r.Description,
		"splits":      splits,
	}
	if includeNotes && r.Notes != "" {
		m["notes"] = r.Notes
	}
	return m
}

// AccountRow is one line of account output.
type AccountRow struct {
	Name     string
	Type     string
	Currency string
	GUID     string
	Depth    int
}

func (r AccountRow) ToMap(showGUID bool) map[string]any {
	m := map[string]any{
		"name":     r.Name,
		"type":     r.Type,
		"currency": r.Currency,
	}
	if showGUID && r.GUID != "" {
		m["guid"] = r.GUID
	}
	return m
}
