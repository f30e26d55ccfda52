package repl

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/currency"
	"github.com/bookgrep/bookgrep/internal/output"
	"github.com/bookgrep/bookgrep/internal/query"
)

// Session holds the open book and the mutable display settings shared by all
// commands in one interactive run.
type Session struct {
	Book *book.Book

	Format       string
	Mode         currency.Mode
	Base         string
	LookbackDays int
	Signed       bool
	FullAccount  bool
}

func NewSession(bk *book.Book, base string, lookbackDays int) *Session {
	return &Session{
		Book:         bk,
		Format:       output.FormatTable,
		Mode:         currency.ModeAuto,
		Base:         base,
		LookbackDays: lookbackDays,
	}
}

// Run executes one command line and returns its rendered output.
func (s *Session) Run(ctx context.Context, line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}

	switch args[0] {
	case "help":
		return helpText, nil
	case "set":
		return s.runSet(args[1:])
	case "accounts":
		return s.runAccounts(ctx, args[1:])
	case "grep":
		return s.runGrep(ctx, args[1:])
	case "ledger":
		return s.runLedger(ctx, args[1:])
	case "tx":
		return s.runTx(ctx, args[1:])
	case "split":
		return s.runSplit(ctx, args[1:])
	default:
		return "", fmt.Errorf("unknown command %q (try help)", args[0])
	}
}

const helpText = `Commands:
  accounts [PATTERN] [--regex]      list or search accounts
  grep TEXT [--regex] [--account P] search transactions by text
  ledger PATTERN [--regex]          register for matching accounts
  tx GUID [--balanced]              show one transaction
  split GUID                        show one split
  set KEY VALUE                     change a session setting
  set                               show current settings
  quit                              leave the shell

Settings (set KEY VALUE):
  format        table, csv or json
  currency      auto, base, split or account
  base-currency ISO code used for conversion
  fx-lookback   rate lookback window in days
  signed        true or false
  full-account  true or false`

func (s *Session) runSet(args []string) (string, error) {
	if len(args) == 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "format        %s\n", s.Format)
		fmt.Fprintf(&sb, "currency      %s\n", s.Mode)
		fmt.Fprintf(&sb, "base-currency %s\n", s.Base)
		fmt.Fprintf(&sb, "fx-lookback   %d\n", s.LookbackDays)
		fmt.Fprintf(&sb, "signed        %v\n", s.Signed)
		fmt.Fprintf(&sb, "full-account  %v", s.FullAccount)
		return sb.String(), nil
	}
	if len(args) != 2 {
		return "", fmt.Errorf("usage: set KEY VALUE")
	}

	key, value := args[0], args[1]
	switch key {
	case "format":
		if !output.ValidFormat(value) {
			return "", fmt.Errorf("invalid format %q (want table, csv or json)", value)
		}
		s.Format = value
	case "currency":
		m, err := currency.ParseMode(value)
		if err != nil {
			return "", err
		}
		s.Mode = m
	case "base-currency":
		s.Base = strings.ToUpper(value)
	case "fx-lookback":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return "", fmt.Errorf("%w: %s", book.ErrInvalidLookback, value)
		}
		s.LookbackDays = n
	case "signed":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("invalid boolean %q", value)
		}
		s.Signed = b
	case "full-account":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("invalid boolean %q", value)
		}
		s.FullAccount = b
	default:
		return "", fmt.Errorf("unknown setting %q", key)
	}
	return fmt.Sprintf("%s = %s", key, value), nil
}

// splitFlags separates positional arguments from --flag and --flag=value
// tokens.
func splitFlags(args []string) (positional []string, flags map[string]string) {
	flags = make(map[string]string)
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			name, value, found := strings.Cut(arg[2:], "=")
			if !found {
				value = "true"
			}
			flags[name] = value
		} else {
			positional = append(positional, arg)
		}
	}
	return positional, flags
}

func (s *Session) formatter() *output.Formatter {
	return &output.Formatter{
		Format:       s.Format,
		ShowHeader:   true,
		IncludeNotes: true,
	}
}

func (s *Session) converter() (*currency.Converter, error) {
	return currency.NewConverter(s.Book, s.Base, s.LookbackDays)
}

func (s *Session) runAccounts(ctx context.Context, args []string) (string, error) {
	positional, flags := splitFlags(args)
	pattern := ""
	if len(positional) > 0 {
		pattern = positional[0]
	}

	accounts, err := s.Book.AccountsByPattern(pattern, flags["regex"] == "true", flags["case-sensitive"] == "true", false)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		if suggestions := s.Book.SuggestAccounts(pattern, 3); pattern != "" && len(suggestions) > 0 {
			return "", fmt.Errorf("no accounts match %q, did you mean: %s?", pattern, strings.Join(suggestions, ", "))
		}
		return "no matches", nil
	}

	rows := make([]output.AccountRow, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, output.AccountRow{
			Name:     a.FullName,
			Type:     a.Type,
			Currency: a.Currency,
			GUID:     a.GUID,
			Depth:    a.Depth(),
		})
	}

	var buf bytes.Buffer
	if err := s.formatter().Accounts(&buf, rows, flags["tree"] == "true"); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func (s *Session) runGrep(ctx context.Context, args []string) (string, error) {
	positional, flags := splitFlags(args)
	if len(positional) == 0 {
		return "", fmt.Errorf("usage: grep TEXT")
	}
	text := strings.Join(positional, " ")

	re, err := query.CompileText(text, flags["regex"] == "true", flags["case-sensitive"] == "true")
	if err != nil {
		return "", err
	}
	filter := &query.Filter{
		Pattern: re,
		Fields:  query.Fields{Desc: true, Memo: true, Notes: true},
		Signed:  s.Signed,
	}

	accounts := s.Book.Accounts()
	var filterCurrencies []string
	if acctPattern := flags["account"]; acctPattern != "" {
		accounts, err = s.Book.AccountsByPattern(acctPattern, false, false, true)
		if err != nil {
			return "", err
		}
		if len(accounts) == 0 {
			return "", fmt.Errorf("%w: no accounts match %q", book.ErrAccountNotFound, acctPattern)
		}
		for _, a := range accounts {
			filterCurrencies = append(filterCurrencies, a.Currency)
		}
	}

	return s.renderRegister(ctx, accounts, filter, filterCurrencies)
}

func (s *Session) runLedger(ctx context.Context, args []string) (string, error) {
	positional, flags := splitFlags(args)
	if len(positional) == 0 {
		return "", fmt.Errorf("usage: ledger PATTERN")
	}

	accounts, err := s.Book.AccountsByPattern(positional[0], flags["regex"] == "true", flags["case-sensitive"] == "true", true)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		if suggestions := s.Book.SuggestAccounts(positional[0], 3); len(suggestions) > 0 {
			return "", fmt.Errorf("no accounts match %q, did you mean: %s?", positional[0], strings.Join(suggestions, ", "))
		}
		return "no matches", nil
	}

	filterCurrencies := make([]string, 0, len(accounts))
	for _, a := range accounts {
		filterCurrencies = append(filterCurrencies, a.Currency)
	}
	filter := &query.Filter{
		Fields: query.Fields{Desc: true, Memo: true, Notes: true},
		Signed: s.Signed,
	}
	return s.renderRegister(ctx, accounts, filter, filterCurrencies)
}

func (s *Session) renderRegister(ctx context.Context, accounts []book.Account, filter *query.Filter, filterCurrencies []string) (string, error) {
	guids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		guids = append(guids, a.GUID)
	}
	splits, err := s.Book.SplitsForAccounts(ctx, guids)
	if err != nil {
		return "", err
	}

	txGUIDs := make([]string, 0, len(splits))
	for _, sp := range splits {
		txGUIDs = append(txGUIDs, sp.TxGUID)
	}
	notes, err := s.Book.NotesBatch(ctx, txGUIDs)
	if err != nil {
		return "", err
	}

	matched := splits[:0:0]
	for _, sp := range splits {
		if filter.Match(sp, notes[sp.TxGUID]) {
			matched = append(matched, sp)
		}
	}
	if len(matched) == 0 {
		return "no matches", nil
	}

	conv, err := s.converter()
	if err != nil {
		return "", err
	}
	rows, err := query.BuildRows(ctx, matched, notes, conv, query.RowOptions{
		Mode:                    s.Mode,
		AccountFilterCurrencies: filterCurrencies,
		Signed:                  s.Signed,
		FullAccount:             s.FullAccount,
	})
	if err != nil {
		return "", err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	var buf bytes.Buffer
	if err := s.formatter().Splits(&buf, rows); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func (s *Session) runTx(ctx context.Context, args []string) (string, error) {
	positional, flags := splitFlags(args)
	if len(positional) != 1 {
		return "", fmt.Errorf("usage: tx GUID")
	}

	tx, err := s.Book.TransactionByGUID(ctx, positional[0])
	if err != nil {
		return "", err
	}
	note, err := s.Book.Note(ctx, tx.GUID)
	if err != nil {
		return "", err
	}

	contextMode := query.ContextFull
	if flags["balanced"] == "true" || flags["context"] == "balanced" {
		contextMode = query.ContextBalanced
	}
	rows, warnings, err := query.BuildTransactions(ctx, tx.Splits, s.Book,
		map[string]string{tx.GUID: note}, query.TxOptions{
			Signed:      s.Signed,
			FullAccount: true,
			Context:     contextMode,
		})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, u := range warnings {
		fmt.Fprintf(&buf, "Warning: transaction %s not perfectly balanced in %s, showing full context\n", u.TxGUID, u.Currency)
	}
	if err := s.formatter().Transactions(&buf, rows); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func (s *Session) runSplit(ctx context.Context, args []string) (string, error) {
	positional, _ := splitFlags(args)
	if len(positional) != 1 {
		return "", fmt.Errorf("usage: split GUID")
	}

	sp, err := s.Book.SplitByGUID(ctx, positional[0])
	if err != nil {
		return "", err
	}
	notes, err := s.Book.NotesBatch(ctx, []string{sp.TxGUID})
	if err != nil {
		return "", err
	}

	conv, err := s.converter()
	if err != nil {
		return "", err
	}
	rows, err := query.BuildRows(ctx, []book.Split{*sp}, notes, conv, query.RowOptions{
		Mode:        s.Mode,
		Signed:      s.Signed,
		FullAccount: true,
	})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := s.formatter().Splits(&buf, rows); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
