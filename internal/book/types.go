package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types excluded from every user-facing operation.
const (
	TypeRoot    = "ROOT"
	TypeTrading = "TRADING"
)

type Account struct {
	GUID       string `json:"guid"`
	Name       string `json:"name"`
	FullName   string `json:"full_name"`
	Type       string `json:"type"`
	Currency   string `json:"currency"`
	ParentGUID string `json:"parent_guid,omitempty"`
}

// Depth is the number of path segments below the top level.
func (a Account) Depth() int {
	depth := 0
	for _, r := range a.FullName {
		if r == ':' {
			depth++
		}
	}
	return depth
}

// Split is one signed monetary leg of a transaction, pre-joined with its
// owning transaction and account for query convenience.
type Split struct {
	GUID        string          `json:"guid"`
	TxGUID      string          `json:"tx_guid"`
	AccountGUID string          `json:"account_guid"`
	Account     string          `json:"account"`
	Memo        string          `json:"memo,omitempty"`
	Value       decimal.Decimal `json:"value"`
	Currency    string          `json:"currency"`
	PostDate    time.Time       `json:"post_date"`
	Description string          `json:"description"`
}

type Transaction struct {
	GUID        string    `json:"guid"`
	PostDate    time.Time `json:"post_date"`
	Description string    `json:"description"`
	Splits      []Split   `json:"splits"`
}

// Info describes an open book.
type Info struct {
	Path             string `json:"path"`
	DefaultCurrency  string `json:"default_currency"`
	HasNotesColumn   bool   `json:"has_notes_column"`
	HasSlotsNotes    bool   `json:"has_slots_notes"`
	AccountCount     int    `json:"account_count"`
	TransactionCount int    `json:"transaction_count"`
}
