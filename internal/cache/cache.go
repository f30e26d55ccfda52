// Package cache manages the optional sidecar search cache: a denormalized
// copy of the book's splits in a separate SQLite file, with pre-lowered
// search columns and an FTS5 index. The cache is advisory — queries never
// require it — and can be rebuilt from the book at any time.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bookgrep/bookgrep/internal/book"
)

const SchemaVersion = 1

type Manager struct {
	cachePath string
	bookPath  string
}

func NewManager(cachePath, bookPath string) *Manager {
	return &Manager{cachePath: cachePath, bookPath: bookPath}
}

// Status describes the cache file and its metadata.
type Status struct {
	Exists        bool      `json:"exists"`
	Path          string    `json:"path"`
	SizeBytes     int64     `json:"size_bytes,omitempty"`
	Modified      time.Time `json:"modified,omitempty"`
	SplitCount    int       `json:"split_count,omitempty"`
	SchemaVersion int       `json:"schema_version,omitempty"`
	SourceBook    string    `json:"source_book,omitempty"`
	BuildTime     string    `json:"build_time,omitempty"`
	BuildID       string    `json:"build_id,omitempty"`
}

func (m *Manager) Status(ctx context.Context) (Status, error) {
	st := Status{Path: m.cachePath}

	fi, err := os.Stat(m.cachePath)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("stat cache: %w", err)
	}
	st.Exists = true
	st.SizeBytes = fi.Size()
	st.Modified = fi.ModTime()

	db, err := sql.Open("sqlite", "file:"+m.cachePath+"?mode=ro")
	if err != nil {
		return st, fmt.Errorf("open cache: %w", err)
	}
	defer db.Close()

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM splits`).Scan(&st.SplitCount); err != nil {
		return st, fmt.Errorf("count cached splits: %w", err)
	}

	meta := map[string]*string{
		"book_path":  &st.SourceBook,
		"build_time": &st.BuildTime,
		"build_id":   &st.BuildID,
	}
	for key, dst := range meta {
		_ = db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(dst)
	}
	var version string
	if err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&version); err == nil {
		fmt.Sscanf(version, "%d", &st.SchemaVersion)
	}
	return st, nil
}

// Build populates the cache from an open book. An existing cache is only
// replaced when force is set.
func (m *Manager) Build(ctx context.Context, bk *book.Book, force bool) error {
	if _, err := os.Stat(m.cachePath); err == nil {
		if !force {
			return fmt.Errorf("%w: %s (use --force to rebuild)", book.ErrCacheExists, m.cachePath)
		}
		if _, err := m.Drop(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(m.cachePath), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+m.cachePath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache build: %w", err)
	}
	defer tx.Rollback()

	if err := createSchema(ctx, tx); err != nil {
		return err
	}

	metadata := map[string]string{
		"schema_version": fmt.Sprint(SchemaVersion),
		"book_path":      m.bookPath,
		"build_time":     time.Now().UTC().Format(time.RFC3339),
		"build_id":       uuid.Must(uuid.NewV7()).String(),
	}
	for key, value := range metadata {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO metadata (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("write cache metadata: %w", err)
		}
	}

	accounts := bk.Accounts()
	guids := make([]string, 0, len(accounts))
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		guids = append(guids, a.GUID)
		names[a.GUID] = a.FullName
	}
	splits, err := bk.SplitsForAccounts(ctx, guids)
	if err != nil {
		return err
	}

	for _, s := range splits {
		name := names[s.AccountGUID]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO splits (
				split_guid, tx_guid, account_guid,
				tx_date, description, description_lower,
				account_name, account_name_lower,
				memo, memo_lower,
				amount, currency
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.GUID, s.TxGUID, s.AccountGUID,
			s.PostDate.Format("2006-01-02"),
			s.Description, strings.ToLower(s.Description),
			name, strings.ToLower(name),
			s.Memo, strings.ToLower(s.Memo),
			s.Value.String(), s.Currency,
		)
		if err != nil {
			return fmt.Errorf("cache split %s: %w", s.GUID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO splits_fts (split_guid, description, account_name, memo)
		 SELECT split_guid, description, account_name, memo FROM splits`); err != nil {
		return fmt.Errorf("build fts index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache build: %w", err)
	}
	return nil
}

// Drop deletes the cache file, reporting whether it existed.
func (m *Manager) Drop() (bool, error) {
	err := os.Remove(m.cachePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("drop cache: %w", err)
	}
	// WAL sidecars, if any.
	os.Remove(m.cachePath + "-wal")
	os.Remove(m.cachePath + "-shm")
	return true, nil
}

// Entry is one cached split returned by Search.
type Entry struct {
	SplitGUID   string `json:"split_guid"`
	TxGUID      string `json:"tx_guid"`
	AccountGUID string `json:"account_guid"`
	TxDate      string `json:"tx_date"`
	Description string `json:"description"`
	AccountName string `json:"account_name"`
	Memo        string `json:"memo,omitempty"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency,omitempty"`
}

// Search queries the cache, via the FTS index or a LIKE scan.
func (m *Manager) Search(ctx context.Context, text string, useFTS bool, limit int) ([]Entry, error) {
	if _, err := os.Stat(m.cachePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: run 'bookgrep cache build'", book.ErrNoCache)
	}

	db, err := sql.Open("sqlite", "file:"+m.cachePath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer db.Close()

	var rows *sql.Rows
	if useFTS {
		q := `SELECT s.split_guid, s.tx_guid, s.account_guid, s.tx_date,
				s.description, s.account_name, s.memo, s.amount, s.currency
			  FROM splits s
			  JOIN splits_fts fts ON s.split_guid = fts.split_guid
			  WHERE splits_fts MATCH ?
			  ORDER BY s.tx_date DESC`
		args := []any{text}
		if limit > 0 {
			q += ` LIMIT ?`
			args = append(args, limit)
		}
		rows, err = db.QueryContext(ctx, q, args...)
	} else {
		pattern := "%" + strings.ToLower(text) + "%"
		q := `SELECT split_guid, tx_guid, account_guid, tx_date,
				description, account_name, memo, amount, currency
			  FROM splits
			  WHERE description_lower LIKE ?
			     OR memo_lower LIKE ?
			     OR account_name_lower LIKE ?
			  ORDER BY tx_date DESC`
		args := []any{pattern, pattern, pattern}
		if limit > 0 {
			q += ` LIMIT ?`
			args = append(args, limit)
		}
		rows, err = db.QueryContext(ctx, q, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("search cache: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SplitGUID, &e.TxGUID, &e.AccountGUID, &e.TxDate,
			&e.Description, &e.AccountName, &e.Memo, &e.Amount, &e.Currency); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func createSchema(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE metadata (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
		`CREATE TABLE splits (
			split_guid TEXT PRIMARY KEY,
			tx_guid TEXT NOT NULL,
			account_guid TEXT NOT NULL,
			tx_date TEXT NOT NULL,
			description TEXT NOT NULL,
			description_lower TEXT NOT NULL,
			account_name TEXT NOT NULL,
			account_name_lower TEXT NOT NULL,
			memo TEXT,
			memo_lower TEXT,
			amount TEXT NOT NULL,
			currency TEXT
		)`,
		`CREATE INDEX idx_splits_tx_date ON splits(tx_date)`,
		`CREATE INDEX idx_splits_tx_guid ON splits(tx_guid)`,
		`CREATE INDEX idx_splits_account ON splits(account_name_lower)`,
		`CREATE VIRTUAL TABLE splits_fts USING fts5(
			split_guid, description, account_name, memo
		)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create cache schema: %w", err)
		}
	}
	return nil
}
