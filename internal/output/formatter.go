package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

func ValidFormat(f string) bool {
	return f == FormatTable || f == FormatCSV || f == FormatJSON
}

var headerStyle = lipgloss.NewStyle().Bold(true)

// Formatter writes rows in one of the supported output formats.
type Formatter struct {
	Format       string
	ShowHeader   bool
	IncludeNotes bool
	ShowGUIDs    bool
}

// Splits writes split rows.
func (f *Formatter) Splits(w io.Writer, rows []SplitRow) error {
	if len(rows) == 0 {
		return nil
	}
	switch f.Format {
	case FormatJSON:
		return f.splitsJSON(w, rows)
	case FormatCSV:
		return f.splitsCSV(w, rows)
	default:
		return f.splitsTable(w, rows)
	}
}

// Transactions writes transaction blocks. CSV output flattens to split rows.
func (f *Formatter) Transactions(w io.Writer, rows []TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	switch f.Format {
	case FormatJSON:
		data := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			data = append(data, r.ToMap(f.IncludeNotes))
		}
		return writeJSON(w, data)
	case FormatCSV:
		var splits []SplitRow
		for _, tx := range rows {
			splits = append(splits, tx.Splits...)
		}
		return f.splitsCSV(w, splits)
	default:
		return f.transactionsTable(w, rows)
	}
}

// Accounts writes account rows; treeMode indents by depth and shows only the
// final path segment.
func (f *Formatter) Accounts(w io.Writer, rows []AccountRow, treeMode bool) error {
	if len(rows) == 0 {
		return nil
	}
	switch f.Format {
	case FormatJSON:
		data := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			data = append(data, r.ToMap(f.ShowGUIDs))
		}
		return writeJSON(w, data)
	case FormatCSV:
		return f.accountsCSV(w, rows)
	default:
		return f.accountsTable(w, rows, treeMode)
	}
}

func (f *Formatter) splitsTable(w io.Writer, rows []SplitRow) error {
	headers := []string{"Date", "Description", "Account", "Memo", "Amount", "Ccy"}

	hasNotes := false
	if f.IncludeNotes {
		for _, r := range rows {
			if r.Notes != "" {
				hasNotes = true
				break
			}
		}
	}
	if hasNotes {
		headers = insertAt(headers, 4, "Notes")
	}
	hasOrig := false
	for _, r := range rows {
		if r.AmountOrig != nil {
			hasOrig = true
			break
		}
	}
	if hasOrig {
		headers = append(headers, "Orig Amt", "Orig Ccy")
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := []string{
			r.Date.Format("2006-01-02"),
			truncate(r.Description, 40),
			truncate(r.Account, 35),
			truncate(r.Memo, 25),
			formatAmount(r.Amount),
			r.Currency,
		}
		if hasNotes {
			line = insertAt(line, 4, truncate(r.Notes, 25))
		}
		if hasOrig {
			if r.AmountOrig != nil {
				line = append(line, formatAmount(*r.AmountOrig), r.CurrencyOrig)
			} else {
				line = append(line, "", "")
			}
		}
		table = append(table, line)
	}

	renderTable(w, headers, table, f.ShowHeader)
	return nil
}

func (f *Formatter) splitsCSV(w io.Writer, rows []SplitRow) error {
	fields := []string{"date", "description", "account", "memo", "amount", "currency", "fx_rate", "tx_guid", "split_guid"}

	hasNotes := false
	if f.IncludeNotes {
		for _, r := range rows {
			if r.Notes != "" {
				hasNotes = true
				break
			}
		}
	}
	if hasNotes {
		fields = insertAt(fields, 4, "notes")
	}
	hasOrig := false
	for _, r := range rows {
		if r.AmountOrig != nil {
			hasOrig = true
			break
		}
	}
	if hasOrig {
		fields = append(fields, "amount_orig", "currency_orig")
	}

	cw := csv.NewWriter(w)
	if f.ShowHeader {
		if err := cw.Write(fields); err != nil {
			return err
		}
	}
	for _, r := range rows {
		m := r.ToMap(f.IncludeNotes)
		record := make([]string, len(fields))
		for i, field := range fields {
			if v, ok := m[field]; ok && v != nil {
				record[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (f *Formatter) splitsJSON(w io.Writer, rows []SplitRow) error {
	data := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, r.ToMap(f.IncludeNotes))
	}
	return writeJSON(w, data)
}

func (f *Formatter) transactionsTable(w io.Writer, rows []TransactionRow) error {
	for i, tx := range rows {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s] %s\n", tx.Date.Format("2006-01-02"), tx.Description)
		if tx.Notes != "" {
			fmt.Fprintf(w, "  Notes: %s\n", tx.Notes)
		}
		fmt.Fprintf(w, "  GUID: %s\n", tx.TxGUID)
		for _, s := range tx.Splits {
			fmt.Fprintf(w, "    %-40s %12s %s\n", truncate(s.Account, 40), formatAmount(s.Amount), s.Currency)
			if s.Memo != "" {
				fmt.Fprintf(w, "      Memo: %s\n", s.Memo)
			}
		}
	}
	return nil
}

func (f *Formatter) accountsTable(w io.Writer, rows []AccountRow, treeMode bool) error {
	headers := []string{"Account", "Type", "Currency"}
	if f.ShowGUIDs {
		headers = append(headers, "GUID")
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		name := r.Name
		if treeMode {
			parts := strings.Split(r.Name, ":")
			name = strings.Repeat("  ", r.Depth) + parts[len(parts)-1]
		}
		line := []string{name, r.Type, r.Currency}
		if f.ShowGUIDs {
			line = append(line, r.GUID)
		}
		table = append(table, line)
	}

	renderTable(w, headers, table, f.ShowHeader)
	return nil
}

func (f *Formatter) accountsCSV(w io.Writer, rows []AccountRow) error {
	fields := []string{"name", "type", "currency"}
	if f.ShowGUIDs {
		fields = append(fields, "guid")
	}

	cw := csv.NewWriter(w)
	if f.ShowHeader {
		if err := cw.Write(fields); err != nil {
			return err
		}
	}
	for _, r := range rows {
		m := r.ToMap(f.ShowGUIDs)
		record := make([]string, len(fields))
		for i, field := range fields {
			if v, ok := m[field]; ok {
				record[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func renderTable(w io.Writer, headers []string, rows [][]string, showHeader bool) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		if showHeader {
			widths[i] = len(h)
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Amount columns are right-aligned.
	rightAligned := make([]bool, len(headers))
	for i, h := range headers {
		if h == "Amount" || h == "Orig Amt" {
			rightAligned[i] = true
		}
	}

	renderRow := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i >= len(widths) {
				continue
			}
			if rightAligned[i] {
				parts[i] = fmt.Sprintf("%*s", widths[i], cell)
			} else {
				parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
			}
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	if showHeader {
		fmt.Fprintln(w, headerStyle.Render(renderRow(headers)))
		rules := make([]string, len(headers))
		for i, width := range widths {
			rules[i] = strings.Repeat("-", width)
		}
		fmt.Fprintln(w, renderRow(rules))
	}
	for _, row := range rows {
		fmt.Fprintln(w, renderRow(row))
	}
}

func insertAt(s []string, i int, v string) []string {
	out := make([]string, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	out = append(out, s[i:]...)
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// formatAmount renders a decimal with two fraction digits and thousands
// separators, matching ledger-style table output.
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.Index(s, ".")
	whole, frac := s[:dot], s[dot:]

	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	out := sb.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
