package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/currency"
	"github.com/bookgrep/bookgrep/internal/output"
	"github.com/bookgrep/bookgrep/internal/query"
)

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	info := s.book.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"path":              info.Path,
		"default_currency":  info.DefaultCurrency,
		"account_count":     info.AccountCount,
		"transaction_count": info.TransactionCount,
		"has_notes":         info.HasNotesColumn || info.HasSlotsNotes,
	})
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pattern := q.Get("pattern")
	isRegex := boolParam(q, "regex")
	caseSensitive := boolParam(q, "case")
	subtree := boolParam(q, "subtree")

	accounts, err := s.book.AccountsByPattern(pattern, isRegex, caseSensitive, subtree)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
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
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	guid, _ := url.PathUnescape(chi.URLParam(r, "guid"))
	acct, err := s.book.AccountByGUID(guid)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, output.AccountRow{
		Name:     acct.FullName,
		Type:     acct.Type,
		Currency: acct.Currency,
		GUID:     acct.GUID,
		Depth:    acct.Depth(),
	})
}

func (s *Server) listAccountSplits(w http.ResponseWriter, r *http.Request) {
	guid, _ := url.PathUnescape(chi.URLParam(r, "guid"))
	acct, err := s.book.AccountByGUID(guid)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	splits, err := s.book.SplitsForAccounts(r.Context(), []string{acct.GUID})
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	filter, opts, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.AccountFilterCurrencies = []string{acct.Currency}

	rows, err := s.filterAndBuild(r, splits, filter, opts)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rowMaps(rows))
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	guid, _ := url.PathUnescape(chi.URLParam(r, "guid"))
	tx, err := s.book.TransactionByGUID(r.Context(), guid)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	note, err := s.book.Note(r.Context(), tx.GUID)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	contextMode := r.URL.Query().Get("context")
	if contextMode == "" {
		contextMode = query.ContextFull
	}

	// Treat every split as matching so balanced context reduces to the
	// minimal covering set around the whole transaction.
	matching := tx.Splits
	rows, warnings, err := query.BuildTransactions(r.Context(), matching, s.book,
		map[string]string{tx.GUID: note}, query.TxOptions{
			Signed:      boolParam(r.URL.Query(), "signed"),
			FullAccount: true,
			Context:     contextMode,
		})
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, book.ErrTransactionNotFound.Error())
		return
	}

	resp := rows[0].ToMap(true)
	if len(warnings) > 0 {
		resp["unbalanced_context"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getSplit(w http.ResponseWriter, r *http.Request) {
	guid, _ := url.PathUnescape(chi.URLParam(r, "guid"))
	sp, err := s.book.SplitByGUID(r.Context(), guid)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	notes, err := s.book.NotesBatch(r.Context(), []string{sp.TxGUID})
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	_, opts, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.FullAccount = true

	conv, err := s.converter()
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	rows, err := query.BuildRows(r.Context(), []book.Split{*sp}, notes, conv, opts)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows[0].ToMap(true))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	accounts := s.book.Accounts()
	if acctPattern := q.Get("account"); acctPattern != "" {
		var err error
		accounts, err = s.book.AccountsByPattern(acctPattern,
			boolParam(q, "account_regex"), boolParam(q, "case"), true)
		if err != nil {
			writeError(w, mapError(err), err.Error())
			return
		}
	}
	guids := make([]string, 0, len(accounts))
	currencies := make([]string, 0, len(accounts))
	for _, a := range accounts {
		guids = append(guids, a.GUID)
		currencies = append(currencies, a.Currency)
	}

	splits, err := s.book.SplitsForAccounts(r.Context(), guids)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	filter, opts, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Get("account") != "" {
		opts.AccountFilterCurrencies = currencies
	}

	rows, err := s.filterAndBuild(r, splits, filter, opts)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rowMaps(rows))
}

func (s *Server) getPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	dateStr := q.Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	on, err := query.ParseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := s.converter()
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	rate, err := conv.Price(r.Context(), from, to, on)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	resp := map[string]any{
		"from":  from,
		"to":    to,
		"date":  on.Format("2006-01-02"),
		"found": rate != nil,
	}
	if rate != nil {
		resp["rate"] = rate.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// filterFromQuery builds the split filter and row options shared by the
// splits and search endpoints.
func filterFromQuery(r *http.Request) (*query.Filter, query.RowOptions, error) {
	q := r.URL.Query()

	filter := &query.Filter{
		Fields: query.Fields{Desc: true, Memo: true, Notes: true},
		Signed: boolParam(q, "signed"),
	}
	if fields := q.Get("fields"); fields != "" {
		f, err := query.ParseFields(fields)
		if err != nil {
			return nil, query.RowOptions{}, err
		}
		filter.Fields = f
	}
	if pattern := q.Get("pattern"); pattern != "" {
		re, err := query.CompileText(pattern, boolParam(q, "regex"), boolParam(q, "case"))
		if err != nil {
			return nil, query.RowOptions{}, err
		}
		filter.Pattern = re
	}
	if after := q.Get("after"); after != "" {
		t, err := query.ParseDate(after)
		if err != nil {
			return nil, query.RowOptions{}, err
		}
		filter.After = &t
	}
	if before := q.Get("before"); before != "" {
		t, err := query.ParseDate(before)
		if err != nil {
			return nil, query.RowOptions{}, err
		}
		filter.Before = &t
	}
	if amount := q.Get("amount"); amount != "" {
		min, max, err := query.ParseAmountRange(amount)
		if err != nil {
			return nil, query.RowOptions{}, err
		}
		filter.MinAmount = min
		filter.MaxAmount = max
	}

	opts := query.RowOptions{
		Signed:       filter.Signed,
		FullAccount:  true,
		AlsoOriginal: boolParam(q, "also_original"),
	}
	opts.Mode = currency.ModeAuto
	if mode := q.Get("currency"); mode != "" {
		m, err := currency.ParseMode(mode)
		if err != nil {
			return nil, query.RowOptions{}, err
		}
		opts.Mode = m
	}
	return filter, opts, nil
}

func (s *Server) filterAndBuild(r *http.Request, splits []book.Split, filter *query.Filter, opts query.RowOptions) ([]output.SplitRow, error) {
	guids := make([]string, 0, len(splits))
	for _, sp := range splits {
		guids = append(guids, sp.TxGUID)
	}
	notes, err := s.book.NotesBatch(r.Context(), guids)
	if err != nil {
		return nil, err
	}

	matched := splits[:0:0]
	for _, sp := range splits {
		if filter.Match(sp, notes[sp.TxGUID]) {
			matched = append(matched, sp)
		}
	}

	conv, err := s.converter()
	if err != nil {
		return nil, err
	}
	rows, err := query.BuildRows(r.Context(), matched, notes, conv, opts)
	if err != nil {
		return nil, err
	}

	q := r.URL.Query()
	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = "date"
	}
	query.SortRows(rows, sortKey, boolParam(q, "reverse"))
	rows = query.Window(rows, intParam(q, "offset"), intParam(q, "limit"))
	return rows, nil
}

func rowMaps(rows []output.SplitRow) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToMap(true))
	}
	return out
}

func boolParam(q url.Values, key string) bool {
	v := q.Get(key)
	return v == "true" || v == "1"
}

func intParam(q url.Values, key string) int {
	n, _ := strconv.Atoi(q.Get(key))
	return n
}
