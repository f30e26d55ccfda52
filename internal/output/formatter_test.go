package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func sampleRows() []SplitRow {
	rate := decimal.RequireFromString("1.17")
	orig := decimal.RequireFromString("100")
	return []SplitRow{
		{
			Date:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			Description: "Weekly shop",
			Account:     "Groceries",
			Memo:        "market",
			Notes:       "paid cash",
			Amount:      decimal.RequireFromString("54.25"),
			Currency:    "EUR",
			TxGUID:      "tx-1",
			SplitGUID:   "sp-1",
		},
		{
			Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			Description:  "Transfer to savings",
			Account:      "Savings GBP",
			Amount:       decimal.RequireFromString("117"),
			Currency:     "EUR",
			FxRate:       &rate,
			TxGUID:       "tx-2",
			SplitGUID:    "sp-2",
			AmountOrig:   &orig,
			CurrencyOrig: "GBP",
		},
	}
}

func TestSplitsCSV(t *testing.T) {
	t.Parallel()
	f := &Formatter{Format: FormatCSV, ShowHeader: true, IncludeNotes: true}

	var buf bytes.Buffer
	require.NoError(t, f.Splits(&buf, sampleRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t,
		"date,description,account,memo,notes,amount,currency,fx_rate,tx_guid,split_guid,amount_orig,currency_orig",
		lines[0])
	require.Contains(t, lines[1], "2026-01-10,Weekly shop,Groceries,market,paid cash,54.25,EUR,")
	require.Contains(t, lines[2], "1.17")
	require.Contains(t, lines[2], "100,GBP")
}

func TestSplitsCSVNoHeader(t *testing.T) {
	t.Parallel()
	f := &Formatter{Format: FormatCSV, ShowHeader: false}

	var buf bytes.Buffer
	require.NoError(t, f.Splits(&buf, sampleRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "2026-01-10,"))
}

func TestSplitsJSON(t *testing.T) {
	t.Parallel()
	f := &Formatter{Format: FormatJSON, IncludeNotes: true}

	var buf bytes.Buffer
	require.NoError(t, f.Splits(&buf, sampleRows()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	require.Equal(t, "54.25", decoded[0]["amount"], "decimals serialize as strings")
	require.Nil(t, decoded[0]["fx_rate"])
	require.Equal(t, "paid cash", decoded[0]["notes"])

	require.Equal(t, "1.17", decoded[1]["fx_rate"])
	require.Equal(t, "100", decoded[1]["amount_orig"])
	require.Equal(t, "GBP", decoded[1]["currency_orig"])
	_, hasNotes := decoded[1]["notes"]
	require.False(t, hasNotes, "empty notes are omitted")
}

func TestSplitsTable(t *testing.T) {
	t.Parallel()
	f := &Formatter{Format: FormatTable, ShowHeader: true, IncludeNotes: true}

	var buf bytes.Buffer
	require.NoError(t, f.Splits(&buf, sampleRows()))
	out := buf.String()

	require.Contains(t, out, "Date")
	require.Contains(t, out, "Orig Amt")
	require.Contains(t, out, "54.25")
	require.Contains(t, out, "117.00")
	require.Contains(t, out, "Weekly shop")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4, "header, rule, two rows")
	require.Contains(t, lines[1], "----")
}

func TestTransactionsTable(t *testing.T) {
	t.Parallel()
	f := &Formatter{Format: FormatTable, IncludeNotes: true}

	rows := []TransactionRow{{
		TxGUID:      "tx-1",
		Date:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Description: "Weekly shop",
		Notes:       "paid cash",
		Splits: []SplitRow{
			{Account: "Expenses:Food:Groceries", Amount: decimal.RequireFromString("54.25"), Currency: "EUR", Memo: "market"},
			{Account: "Assets:Checking", Amount: decimal.RequireFromString("54.25"), Currency: "EUR"},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, f.Transactions(&buf, rows))
	out := buf.String()

	require.Contains(t, out, "[2026-01-10] Weekly shop")
	require.Contains(t, out, "  Notes: paid cash")
	require.Contains(t, out, "  GUID: tx-1")
	require.Contains(t, out, "Expenses:Food:Groceries")
	require.Contains(t, out, "      Memo: market")
}

func TestTransactionsCSVFlattens(t *testing.T) {
	t.Parallel()
	f := &Formatter{Format: FormatCSV, ShowHeader: true}

	rows := []TransactionRow{{
		TxGUID: "tx-1",
		Date:   time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Splits: []SplitRow{
			{Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Account: "A", Amount: decimal.NewFromInt(1), Currency: "EUR"},
			{Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Account: "B", Amount: decimal.NewFromInt(1), Currency: "EUR"},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, f.Transactions(&buf, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3, "header plus one line per split")
}

func TestAccountsTree(t *testing.T) {
	t.Parallel()
	f := &Formatter{Format: FormatTable, ShowHeader: false}

	rows := []AccountRow{
		{Name: "Expenses", Type: "EXPENSE", Currency: "EUR", Depth: 0},
		{Name: "Expenses:Food", Type: "EXPENSE", Currency: "EUR", Depth: 1},
		{Name: "Expenses:Food:Groceries", Type: "EXPENSE", Currency: "EUR", Depth: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, f.Accounts(&buf, rows, true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "Expenses"))
	require.True(t, strings.HasPrefix(lines[1], "  Food"))
	require.True(t, strings.HasPrefix(lines[2], "    Groceries"))
}

func TestEmptyInputWritesNothing(t *testing.T) {
	t.Parallel()
	f := &Formatter{Format: FormatTable, ShowHeader: true}

	var buf bytes.Buffer
	require.NoError(t, f.Splits(&buf, nil))
	require.NoError(t, f.Transactions(&buf, nil))
	require.NoError(t, f.Accounts(&buf, nil, false))
	require.Zero(t, buf.Len())
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"54.25", "54.25"},
		{"-54.25", "-54.25"},
		{"1234.5", "1,234.50"},
		{"1234567.89", "1,234,567.89"},
		{"-1000000", "-1,000,000.00"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, formatAmount(decimal.RequireFromString(tt.in)), "input %s", tt.in)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "exactly-10", truncate("exactly-10", 10))
	require.Equal(t, "a long ...", truncate("a long description", 10))
}
